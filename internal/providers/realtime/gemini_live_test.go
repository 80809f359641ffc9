package realtime

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLiveServer struct {
	t      *testing.T
	setups chan map[string]any
	inputs chan map[string]any
	script func(f *fakeLiveServer, conn *websocket.Conn)
}

func (f *fakeLiveServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, "secret", r.URL.Query().Get("key"))
	up := websocket.Upgrader{}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var setup map[string]any
	if err := conn.ReadJSON(&setup); err != nil {
		return
	}
	f.setups <- setup
	f.script(f, conn)
}

func newFakeLive(t *testing.T, script func(f *fakeLiveServer, conn *websocket.Conn)) (*GeminiLive, *fakeLiveServer) {
	t.Helper()
	f := &fakeLiveServer{
		t:      t,
		setups: make(chan map[string]any, 1),
		inputs: make(chan map[string]any, 8),
		script: script,
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	g := NewGeminiLive("secret")
	g.Endpoint = "ws" + strings.TrimPrefix(srv.URL, "http")
	return g, f
}

func TestGeminiLiveSetupAndExchange(t *testing.T) {
	g, f := newFakeLive(t, func(f *fakeLiveServer, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte(`{"setupComplete":{}}`))

		var in map[string]any
		if err := conn.ReadJSON(&in); err == nil {
			f.inputs <- in
		}

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"serverContent":{"inputTranscription":{"text":"what are your prices"}}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"AAA="}}]},"turnComplete":true}}`))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		time.Sleep(50 * time.Millisecond)
	})

	sess, err := g.Connect(context.Background(), Config{
		Model:              "gemini-live",
		Voice:              "Kore",
		SystemInstruction:  "be nice",
		InputTranscription: true,
	})
	require.NoError(t, err)
	defer sess.Close()

	setup := <-f.setups
	raw, _ := json.Marshal(setup)
	assert.Contains(t, string(raw), `"model":"models/gemini-live"`)
	assert.Contains(t, string(raw), `"responseModalities":["AUDIO"]`)
	assert.Contains(t, string(raw), `"voiceName":"Kore"`)
	assert.Contains(t, string(raw), `"inputAudioTranscription":{}`)
	assert.Contains(t, string(raw), `"text":"be nice"`)

	require.NoError(t, sess.SendRealtimeInput(context.Background(), Blob{Data: "AQI=", MIMEType: "audio/pcm;rate=16000"}))
	in := <-f.inputs
	raw, _ = json.Marshal(in)
	assert.JSONEq(t, `{"realtimeInput":{"audio":{"data":"AQI=","mimeType":"audio/pcm;rate=16000"}}}`, string(raw))

	msg, err := sess.Receive()
	require.NoError(t, err)
	assert.Equal(t, "what are your prices", msg.InputTranscript)

	msg, err = sess.Receive()
	require.NoError(t, err)
	require.Len(t, msg.Audio, 1)
	assert.Equal(t, "AAA=", msg.Audio[0].Data)
	assert.True(t, msg.TurnComplete)

	_, err = sess.Receive()
	assert.ErrorIs(t, err, io.EOF)
}

func TestGeminiLiveRejectedSetup(t *testing.T) {
	g, _ := newFakeLive(t, func(_ *fakeLiveServer, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":{"code":400,"message":"bad model"}}`))
	})

	_, err := g.Connect(context.Background(), Config{Model: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad model")
}

func TestGeminiLiveRequiresModel(t *testing.T) {
	_, err := NewGeminiLive("k").Connect(context.Background(), Config{})
	assert.Error(t, err)
}

func TestReceiveAfterCloseIsEOF(t *testing.T) {
	g, _ := newFakeLive(t, func(_ *fakeLiveServer, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"setupComplete":{}}`))
		_, _, _ = conn.ReadMessage()
	})

	sess, err := g.Connect(context.Background(), Config{Model: "m"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := sess.Receive()
		done <- err
	}()
	require.NoError(t, sess.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(2 * time.Second):
		t.Fatal("Receive did not return after Close")
	}
}
