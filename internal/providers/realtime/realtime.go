package realtime

import "context"

// Config opens a duplex voice session.
type Config struct {
	Model              string
	Voice              string
	SystemInstruction  string
	InputTranscription bool
}

// Blob is an inline media chunk in its wire form: base64 text plus MIME type.
type Blob struct {
	Data     string
	MIMEType string
}

// Message is one server event. Any field may be empty.
type Message struct {
	Audio           []Blob
	InputTranscript string
	TurnComplete    bool
	Interrupted     bool
}

// Session is a live duplex connection. Receive returns io.EOF once the
// remote side closes normally or Close has been called.
type Session interface {
	SendRealtimeInput(ctx context.Context, media Blob) error
	Receive() (*Message, error)
	Close() error
}

type Connector interface {
	Connect(ctx context.Context, cfg Config) (Session, error)
}
