package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpbot/model"
	"helpbot/service"
	"helpbot/store"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

type messageBody struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	UserID     *string `json:"user_id"`
	Timestamp  string  `json:"timestamp"`
	Status     string  `json:"status"`
	AIResponse *string `json:"ai_response"`
}

func newTestRouter(t *testing.T, notifier service.Notifier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	svc := service.NewMessageService(store.NewMemoryStore(), service.DisabledResponder{}, notifier, logger)
	return NewRouter(svc, logger, []string{"*"})
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decodeMessage(t *testing.T, raw json.RawMessage) messageBody {
	t.Helper()
	var m messageBody
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestCreateMessage(t *testing.T) {
	r := newTestRouter(t, service.DisabledNotifier{})

	w, env := do(t, r, http.MethodPost, "/api/v1/messages",
		`{"content":"Qual o horário de funcionamento?","user_id":"usr_12345"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.True(t, env.Success)
	assert.Equal(t, "Message created successfully.", env.Message)

	msg := decodeMessage(t, env.Data)
	assert.Len(t, msg.ID, 24)
	assert.Equal(t, "Qual o horário de funcionamento?", msg.Content)
	require.NotNil(t, msg.UserID)
	assert.Equal(t, "usr_12345", *msg.UserID)
	assert.Equal(t, "ai_disabled", msg.Status)
	assert.Nil(t, msg.AIResponse)

	ts, err := time.Parse(time.RFC3339Nano, msg.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
	assert.True(t, strings.HasSuffix(msg.Timestamp, "Z"))
}

func TestCreateMessage_ResponseShape(t *testing.T) {
	r := newTestRouter(t, service.DisabledNotifier{})

	w, _ := do(t, r, http.MethodPost, "/api/v1/messages", `{"content":"hi"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	data := body.Data
	for _, key := range []string{"id", "content", "user_id", "timestamp", "status", "ai_response"} {
		assert.Contains(t, data, key)
	}
	assert.Nil(t, data["user_id"])
	assert.Nil(t, data["ai_response"])
}

func TestCreateMessage_ValidationErrors(t *testing.T) {
	r := newTestRouter(t, service.DisabledNotifier{})

	tests := []struct {
		name    string
		body    string
		field   string
		errType string
	}{
		{"empty content", `{"content":""}`, "content", "value_error.any_str.min_length"},
		{"missing content", `{"user_id":"u1"}`, "content", "value_error.missing"},
		{"content too long", `{"content":"` + strings.Repeat("x", 501) + `"}`, "content", "value_error.any_str.max_length"},
		{"user_id too long", `{"content":"hi","user_id":"` + strings.Repeat("x", 51) + `"}`, "user_id", "value_error.any_str.max_length"},
		{"extra field", `{"content":"hi","role":"admin"}`, "role", "value_error.extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodPost, "/api/v1/messages", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, env.Success)
			assert.Equal(t, "Validation errors", env.Message)

			var errs []struct {
				Loc  []string `json:"loc"`
				Msg  string   `json:"msg"`
				Type string   `json:"type"`
			}
			require.NoError(t, json.Unmarshal(env.Errors, &errs))
			require.Len(t, errs, 1)
			assert.Equal(t, []string{tt.field}, errs[0].Loc)
			assert.Equal(t, tt.errType, errs[0].Type)
		})
	}
}

func TestCreateMessage_InvalidJSON(t *testing.T) {
	r := newTestRouter(t, service.DisabledNotifier{})

	w, env := do(t, r, http.MethodPost, "/api/v1/messages", `{"content":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Invalid JSON payload", env.Message)
}

func TestCreateMessage_EchoesInput(t *testing.T) {
	r := newTestRouter(t, service.DisabledNotifier{})

	inputs := []struct {
		content string
		userID  *string
	}{
		{content: "a"},
		{content: strings.Repeat("ç", 500)},
		{content: "  leading and trailing spaces  ", userID: strPtr("")},
		{content: "emoji 🚀 and \"quotes\"", userID: strPtr(strings.Repeat("u", 50))},
	}

	for _, in := range inputs {
		payload := map[string]any{"content": in.content}
		if in.userID != nil {
			payload["user_id"] = *in.userID
		}
		body, err := json.Marshal(payload)
		require.NoError(t, err)

		w, env := do(t, r, http.MethodPost, "/api/v1/messages", string(body))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		msg := decodeMessage(t, env.Data)
		assert.Equal(t, in.content, msg.Content)
		assert.Equal(t, in.userID, msg.UserID)
		assert.Equal(t, "ai_disabled", msg.Status)
	}
}

func strPtr(s string) *string { return &s }

func TestGetMessage(t *testing.T) {
	r := newTestRouter(t, service.DisabledNotifier{})
	_, created := do(t, r, http.MethodPost, "/api/v1/messages", `{"content":"hello","user_id":"u1"}`)
	want := decodeMessage(t, created.Data)

	for i := 0; i < 2; i++ {
		w, env := do(t, r, http.MethodGet, "/api/v1/messages/"+want.ID, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
		assert.Equal(t, want, decodeMessage(t, env.Data))
	}
}

func TestGetMessage_InvalidID(t *testing.T) {
	r := newTestRouter(t, service.DisabledNotifier{})

	w, env := do(t, r, http.MethodGet, "/api/v1/messages/not-an-id", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Invalid message ID format.", env.Message)
}

func TestGetMessage_NotFound(t *testing.T) {
	r := newTestRouter(t, service.DisabledNotifier{})

	w, env := do(t, r, http.MethodGet, "/api/v1/messages/"+model.NewID(), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Message not found.", env.Message)
}

func TestListMessages(t *testing.T) {
	r := newTestRouter(t, service.DisabledNotifier{})

	w, env := do(t, r, http.MethodGet, "/api/v1/messages", "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 0, *env.Count)
	assert.JSONEq(t, `[]`, string(env.Data))

	do(t, r, http.MethodPost, "/api/v1/messages", `{"content":"A"}`)
	do(t, r, http.MethodPost, "/api/v1/messages", `{"content":"B"}`)

	w, env = do(t, r, http.MethodGet, "/api/v1/messages", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	require.NotNil(t, env.Count)
	assert.Equal(t, 2, *env.Count)

	var messages []messageBody
	require.NoError(t, json.Unmarshal(env.Data, &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "B", messages[0].Content)
	assert.Equal(t, "A", messages[1].Content)
}

func TestListMessages_Cap(t *testing.T) {
	r := newTestRouter(t, service.DisabledNotifier{})
	for i := 0; i < 105; i++ {
		w, _ := do(t, r, http.MethodPost, "/api/v1/messages", `{"content":"x"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	_, env := do(t, r, http.MethodGet, "/api/v1/messages", "")
	assert.Equal(t, 100, *env.Count)
}

func TestCreateMessage_WebhookFailureDoesNotAffectResponse(t *testing.T) {
	var mu sync.Mutex
	var hits int
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer hook.Close()

	logger, _ := test.NewNullLogger()
	r := newTestRouter(t, service.NewWebhookNotifier(hook.URL, time.Second, logger))

	w, env := do(t, r, http.MethodPost, "/api/v1/messages", `{"content":"hello"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	msg := decodeMessage(t, env.Data)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "hello", msg.Content)
	mu.Lock()
	assert.Equal(t, 1, hits)
	mu.Unlock()
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, service.DisabledNotifier{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"active","version":"1.0.0","message":"HelpBot service is healthy."}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, service.DisabledNotifier{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/messages", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_AllowList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, service.DisabledNotifier{})
	do(t, r, http.MethodPost, "/api/v1/messages", `{"content":"hello"}`)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `helpbot_messages_created_total{status="ai_disabled"}`)
	assert.Contains(t, w.Body.String(), `helpbot_http_requests_total{method="POST",path="/api/v1/messages",status="201"}`)
}

// panickingStore blows up on insert.
type panickingStore struct {
	*store.MemoryStore
}

func (panickingStore) Insert(context.Context, *model.Message) (string, error) {
	panic("write concern exploded")
}

func TestCreateMessage_PanicReturnsEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := test.NewNullLogger()
	svc := service.NewMessageService(panickingStore{store.NewMemoryStore()}, service.DisabledResponder{}, service.DisabledNotifier{}, logger)
	r := NewRouter(svc, logger, []string{"*"})

	w, env := do(t, r, http.MethodPost, "/api/v1/messages", `{"content":"hello"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "An unexpected error occurred.", env.Message)
	assert.JSONEq(t, `"write concern exploded"`, string(env.Errors))

	var recovered bool
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "panic recovered") {
			recovered = true
		}
	}
	assert.True(t, recovered)
}

func TestRequestIDInLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := test.NewNullLogger()
	svc := service.NewMessageService(store.NewMemoryStore(), service.DisabledResponder{}, service.DisabledNotifier{}, logger)
	r := NewRouter(svc, logger, []string{"*"})

	w, _ := do(t, r, http.MethodPost, "/api/v1/messages", `{"content":""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	requestID := w.Header().Get("X-Request-Id")
	require.NotEmpty(t, requestID)

	entries := hook.AllEntries()
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.Contains(t, e.Message, "["+requestID+"]")
	}
}
