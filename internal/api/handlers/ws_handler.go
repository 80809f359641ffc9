package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/barta/internal/audio"
	"github.com/yoockh/barta/internal/events"
	"github.com/yoockh/barta/internal/live"
	"github.com/yoockh/barta/internal/playback"
	"github.com/yoockh/barta/internal/utils"
)

const captureBacklog = 32

type WSHandler struct {
	live     *live.Orchestrator
	bus      events.Bus
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

// NewWSHandler only upgrades requests from allowedOrigins. An empty list
// accepts same-origin requests only; "*" accepts any origin.
func NewWSHandler(orch *live.Orchestrator, bus events.Bus, log logrus.FieldLogger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		live: orch,
		bus:  bus,
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(allowedOrigins),
		},
	}
}

// checkOrigin returns nil for an empty list, which makes the upgrader fall
// back to its same-origin check.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[o] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}

type wsClientMsg struct {
	Type       string `json:"type"` // audio|end
	SampleRate int    `json:"sample_rate"`
	Data       string `json:"data"` // base64 float32 LE mono
}

type wsAudioMsg struct {
	Type       string `json:"type"`
	ID         uint64 `json:"id"`
	StartMS    int64  `json:"start_ms"`
	DurationMS int64  `json:"duration_ms"`
	SampleRate int    `json:"sample_rate"`
	Data       string `json:"data"` // base64 PCM16 LE
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.writeText(b)
}

func (w *wsConn) writeError(code, msg string) {
	_ = w.writeJSON(map[string]string{"type": "error", "code": code, "message": msg})
}

// AgentStatus reports the live agent status without opening a call.
func (h *WSHandler) AgentStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.live.Status())
}

// Terminate hangs up the live call from outside the call socket.
func (h *WSHandler) Terminate(c *gin.Context) {
	h.live.Terminate()
	c.JSON(http.StatusAccepted, h.live.Status())
}

// AgentWS runs one live call over the socket. The client is both the
// microphone and the speaker: it streams captured blocks in and plays the
// fragments it receives at their start_ms.
func (h *WSHandler) AgentWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Subscribe before activating so the first status change is forwarded.
	var feed <-chan []byte
	if h.bus != nil {
		if feed, err = h.bus.Subscribe(ctx); err != nil {
			h.log.WithError(err).Warn("event feed unavailable")
		}
	}

	sink := playback.SinkFunc(func(_ context.Context, it playback.Item) error {
		return wc.writeJSON(wsAudioMsg{
			Type:       "audio",
			ID:         it.ID,
			StartMS:    it.StartAt.Milliseconds(),
			DurationMS: it.Fragment.Duration().Milliseconds(),
			SampleRate: it.Fragment.SampleRate(),
			Data:       audio.Encode(it.Fragment.PCM16()),
		})
	})

	capture := make(chan live.Block, captureBacklog)
	call, err := h.live.Activate(ctx, capture, sink)
	if err != nil {
		if utils.IsCode(err, utils.CodeConflict) {
			wc.writeError(string(utils.CodeConflict), "a call is already live")
		} else {
			h.log.WithError(err).Warn("live call not started")
			wc.writeError(string(utils.CodeUnavailable), "live session could not be opened")
		}
		return
	}

	// reader: WS -> capture
	go func() {
		defer close(capture)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				wc.writeError("INVALID_ARGUMENT", "invalid json")
				continue
			}

			switch msg.Type {
			case "audio":
				raw, err := audio.Decode(msg.Data)
				if err != nil {
					wc.writeError("INVALID_ARGUMENT", "data must be base64")
					continue
				}
				samples, err := audio.DecodeFloat32(raw)
				if err != nil || msg.SampleRate <= 0 {
					wc.writeError("INVALID_ARGUMENT", "data must be float32 samples with a sample_rate")
					continue
				}
				select {
				case capture <- live.Block{Samples: samples, SampleRate: msg.SampleRate}:
				default:
					// the model only wants recent audio; drop when behind
				}

			case "end":
				call.Terminate()
				return

			default:
				wc.writeError("INVALID_ARGUMENT", "unknown message type")
			}
		}
	}()

	// writer: events -> WS, until the call is logged
	for {
		select {
		case <-call.Done():
			if cl := call.Log(); cl != nil {
				_ = wc.writeJSON(events.New(events.TypeCallLog, cl))
			}
			_ = wc.c.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "call ended"),
				time.Now().Add(time.Second))
			return
		case b, ok := <-feed:
			if !ok {
				feed = nil
				continue
			}
			if werr := wc.writeText(b); werr != nil {
				call.Terminate()
				<-call.Done()
				return
			}
		}
	}
}

// EventsWS forwards agent events to dashboards.
func (h *WSHandler) EventsWS(c *gin.Context) {
	if h.bus == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	feed, err := h.bus.Subscribe(ctx)
	if err != nil {
		wc.writeError("UNAVAILABLE", "event feed unavailable")
		return
	}

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	_ = wc.writeJSON(events.New(events.TypeStatus, h.live.Status()))
	for b := range feed {
		if err := wc.writeText(b); err != nil {
			return
		}
	}
}
