package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/barta/internal/api/handlers"
	"github.com/yoockh/barta/internal/api/middleware"
	"github.com/yoockh/barta/internal/events"
	"github.com/yoockh/barta/internal/live"
	"github.com/yoockh/barta/internal/providers/realtime"
	"github.com/yoockh/barta/internal/repositories/sqlite"
	"github.com/yoockh/barta/internal/services"
)

const secret = "route-secret"

type offlineConnector struct{}

func (offlineConnector) Connect(context.Context, realtime.Config) (realtime.Session, error) {
	return nil, errors.New("offline")
}

type api struct {
	r     *gin.Engine
	token string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	msgs, err := sqlite.NewMessageRepo(store)
	require.NoError(t, err)

	bus := events.NewLocalBus()
	state := services.NewConsoleState()
	assistant := services.NewAssistantService(nil, nil, log)
	knowledge := services.NewKnowledgeService(sqlite.NewTemplateRepo(store), sqlite.NewTriggerRepo(store), sqlite.NewTaskRepo(store))
	require.NoError(t, knowledge.Seed(context.Background()))
	queue := &services.InlineFollowUpQueue{Service: services.NewFollowUpService(assistant, knowledge), Logger: log}
	calls := services.NewCallLogService(services.CallLogDeps{Logs: sqlite.NewCallLogRepo(store), Assistant: assistant, FollowUps: queue, Events: bus, Logger: log})
	chat := services.NewChatService(services.ChatDeps{Messages: msgs, Knowledge: knowledge, Assistant: assistant, State: state, Events: bus, Logger: log})
	orch := live.NewOrchestrator(live.Deps{Connector: offlineConnector{}, Templates: knowledge, State: state, Calls: calls, Logger: log})

	r := gin.New()
	RegisterRoutes(r, Deps{
		Auth:      middleware.AuthConfig{Secret: secret},
		Knowledge: handlers.NewKnowledgeHandler(knowledge),
		Chat:      handlers.NewChatHandler(chat, state),
		Calls:     handlers.NewCallHandler(calls, services.NewStatsService(knowledge, calls)),
		Dictation: handlers.NewDictationHandler(services.NewDictationService(nil)),
		WS:        handlers.NewWSHandler(orch, bus, log, nil),
	})

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "op-1"}).SignedString([]byte(secret))
	require.NoError(t, err)
	return &api{r: r, token: tok}
}

func (a *api) call(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type items[T any] struct {
	Items []T `json:"items"`
}

func TestPingIsPublic(t *testing.T) {
	a := newAPI(t)
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/templates", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTemplatesLifecycle(t *testing.T) {
	a := newAPI(t)

	list := decode[items[map[string]any]](t, a.call(t, http.MethodGet, "/templates", nil))
	assert.Len(t, list.Items, 2)

	w := a.call(t, http.MethodPost, "/templates", map[string]string{"name": "Hours", "content": "9-5"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[map[string]any](t, w)
	id := created["id"].(string)

	assert.Equal(t, http.StatusBadRequest, a.call(t, http.MethodPost, "/templates", map[string]string{"name": "x"}).Code)
	assert.Equal(t, http.StatusNoContent, a.call(t, http.MethodDelete, "/templates/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.call(t, http.MethodDelete, "/templates/"+id, nil).Code)
}

func TestTriggersValidation(t *testing.T) {
	a := newAPI(t)

	w := a.call(t, http.MethodPost, "/triggers", map[string]string{"keyword": "price", "action": "dance", "response": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ARGUMENT", decode[map[string]any](t, w)["code"])

	w = a.call(t, http.MethodPost, "/triggers", map[string]string{"keyword": "price", "action": "ai_guided", "response": "quote the spring offer"})
	assert.Equal(t, http.StatusCreated, w.Code)

	list := decode[items[map[string]any]](t, a.call(t, http.MethodGet, "/triggers", nil))
	assert.Len(t, list.Items, 2)
}

func TestSendMessageUsesPredefinedTrigger(t *testing.T) {
	a := newAPI(t)

	w := a.call(t, http.MethodPost, "/messages", map[string]string{"text": "hello!"})
	require.Equal(t, http.StatusOK, w.Code)
	reply := decode[map[string]any](t, w)
	assert.Equal(t, "Hi there! How can Barta-AI help your business today?", reply["text"])
	assert.Equal(t, "agent", reply["sender"])

	w = a.call(t, http.MethodPost, "/messages", map[string]string{"text": "what does it cost"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.ReplyFallback, decode[map[string]any](t, w)["text"])

	history := decode[items[map[string]any]](t, a.call(t, http.MethodGet, "/messages", nil))
	require.Len(t, history.Items, 4)
	assert.Equal(t, "hello!", history.Items[0]["text"])

	assert.Equal(t, http.StatusBadRequest, a.call(t, http.MethodPost, "/messages", map[string]string{"text": ""}).Code)
}

func TestEmptyListsAndStats(t *testing.T) {
	a := newAPI(t)

	w := a.call(t, http.MethodGet, "/calls", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())

	w = a.call(t, http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())

	st := decode[map[string]any](t, a.call(t, http.MethodGet, "/stats", nil))
	assert.EqualValues(t, 0, st["total_calls"])
	assert.EqualValues(t, 2, st["template_count"])
	assert.EqualValues(t, 4205.5, st["total_yield"])

	assert.Equal(t, http.StatusNotFound, a.call(t, http.MethodPost, "/tasks/nope/toggle", nil).Code)
	assert.Equal(t, http.StatusNotImplemented, a.call(t, http.MethodGet, "/calls/nope/recording", nil).Code)
}

func TestDictationUnsupported(t *testing.T) {
	a := newAPI(t)
	w := a.call(t, http.MethodPost, "/dictation", map[string]string{"audio": "AAAA"})
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "UNSUPPORTED", decode[map[string]any](t, w)["code"])
}

func TestAgentStatusAndConsole(t *testing.T) {
	a := newAPI(t)

	st := decode[map[string]any](t, a.call(t, http.MethodGet, "/agent/status", nil))
	assert.Equal(t, "IDLE", st["status"])

	console := decode[map[string]any](t, a.call(t, http.MethodGet, "/console", nil))
	assert.Equal(t, "General", console["intent"])
}
