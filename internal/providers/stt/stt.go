package stt

import "context"

// Provider turns a short LINEAR16 recording into text, as used by chat dictation.
type Provider interface {
	Transcribe(ctx context.Context, pcm []byte, language string) (Transcript, error)
	Close() error
}

type Transcript struct {
	Text       string
	Confidence float64
}
