package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultLiveEndpoint   = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	defaultConnectTimeout = 15 * time.Second
)

// GeminiLive speaks the BidiGenerateContent websocket protocol.
type GeminiLive struct {
	Endpoint string
	APIKey   string
	Dialer   *websocket.Dialer
}

func NewGeminiLive(apiKey string) *GeminiLive {
	return &GeminiLive{Endpoint: DefaultLiveEndpoint, APIKey: apiKey}
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type setup struct {
	Model                   string           `json:"model"`
	GenerationConfig        generationConfig `json:"generationConfig"`
	SystemInstruction       *content         `json:"systemInstruction,omitempty"`
	InputAudioTranscription *struct{}        `json:"inputAudioTranscription,omitempty"`
}

type setupMessage struct {
	Setup setup `json:"setup"`
}

type realtimeInputMessage struct {
	RealtimeInput struct {
		Audio blob `json:"audio"`
	} `json:"realtimeInput"`
}

type serverMessage struct {
	SetupComplete *struct{} `json:"setupComplete"`
	ServerContent *struct {
		ModelTurn          *content `json:"modelTurn"`
		TurnComplete       bool     `json:"turnComplete"`
		Interrupted        bool     `json:"interrupted"`
		InputTranscription *struct {
			Text string `json:"text"`
		} `json:"inputTranscription"`
	} `json:"serverContent"`
	GoAway *struct {
		TimeLeft string `json:"timeLeft"`
	} `json:"goAway"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func buildSetup(cfg Config) setupMessage {
	model := cfg.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	st := setup{
		Model:            model,
		GenerationConfig: generationConfig{ResponseModalities: []string{"AUDIO"}},
	}
	if cfg.Voice != "" {
		st.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: cfg.Voice}},
		}
	}
	if cfg.SystemInstruction != "" {
		st.SystemInstruction = &content{Parts: []part{{Text: cfg.SystemInstruction}}}
	}
	if cfg.InputTranscription {
		st.InputAudioTranscription = &struct{}{}
	}
	return setupMessage{Setup: st}
}

func (g *GeminiLive) Connect(ctx context.Context, cfg Config) (Session, error) {
	if cfg.Model == "" {
		return nil, errors.New("realtime: model is required")
	}
	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = DefaultLiveEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("realtime: bad endpoint: %w", err)
	}
	if g.APIKey != "" {
		q := u.Query()
		q.Set("key", g.APIKey)
		u.RawQuery = q.Encode()
	}

	dialer := g.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	dialCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer cancel()
	}

	conn, resp, err := dialer.DialContext(dialCtx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("realtime: dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("realtime: dial failed: %w", err)
	}

	if err := conn.WriteJSON(buildSetup(cfg)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("realtime: send setup: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(defaultConnectTimeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("realtime: read setup ack: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	var first serverMessage
	if err := json.Unmarshal(payload, &first); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("realtime: decode setup ack: %w", err)
	}
	if first.Error != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("realtime: setup rejected (%d): %s", first.Error.Code, first.Error.Message)
	}
	if first.SetupComplete == nil {
		_ = conn.Close()
		return nil, errors.New("realtime: expected setupComplete")
	}

	return &liveSession{conn: conn}, nil
}

type liveSession struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
}

func (s *liveSession) SendRealtimeInput(ctx context.Context, media Blob) error {
	if s.closed.Load() {
		return errors.New("realtime: session is closed")
	}
	var msg realtimeInputMessage
	msg.RealtimeInput.Audio = blob{MIMEType: media.MIMEType, Data: media.Data}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(dl)
		defer s.conn.SetWriteDeadline(time.Time{})
	}
	return s.conn.WriteJSON(msg)
}

// Receive blocks for the next server event that carries something the
// caller can act on.
func (s *liveSession) Receive() (*Message, error) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}

		var sm serverMessage
		if err := json.Unmarshal(data, &sm); err != nil {
			return nil, fmt.Errorf("realtime: decode server message: %w", err)
		}
		if sm.Error != nil {
			return nil, fmt.Errorf("realtime: server error (%d): %s", sm.Error.Code, sm.Error.Message)
		}
		if sm.ServerContent == nil {
			continue
		}

		out := &Message{
			TurnComplete: sm.ServerContent.TurnComplete,
			Interrupted:  sm.ServerContent.Interrupted,
		}
		if mt := sm.ServerContent.ModelTurn; mt != nil {
			for _, p := range mt.Parts {
				if p.InlineData != nil && p.InlineData.Data != "" {
					out.Audio = append(out.Audio, Blob{Data: p.InlineData.Data, MIMEType: p.InlineData.MIMEType})
				}
			}
		}
		if it := sm.ServerContent.InputTranscription; it != nil {
			out.InputTranscript = it.Text
		}
		return out, nil
	}
}

func (s *liveSession) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(2*time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	return nil
}
