package http_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/abacus"
	adapter "github.com/aretw0/abacus/pkg/adapters/http"
	"github.com/aretw0/abacus/pkg/adapters/memory"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/observability"
	"github.com/aretw0/abacus/pkg/session"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, opts ...adapter.Option) http.Handler {
	t.Helper()
	manager := session.NewManager(memory.NewStore())
	opts = append([]adapter.Option{adapter.WithIDGenerator(func() string { return "generated" })}, opts...)
	return adapter.NewHandler(abacus.New(), manager, opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body == "" {
		req.ContentLength = 0
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) domain.State {
	t.Helper()
	var st domain.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st), w.Body.String())
	return st
}

func TestHealthAndInfo(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, "GET", "/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), abacus.Version)
}

func TestSessionLifecycle(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, "POST", "/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/sessions/generated", w.Header().Get("Location"))
	assert.Equal(t, "generated", decodeState(t, w).SessionID)

	w = do(t, h, "POST", "/sessions", `{"id":"calc"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	st := decodeState(t, w)
	assert.Equal(t, "0", st.Preview)

	w = do(t, h, "POST", "/sessions/calc/keys", `{"keys":"2+3×4"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	st = decodeState(t, w)
	assert.Equal(t, "2+3×4", st.Buffer)
	assert.Equal(t, "14", st.Preview)

	w = do(t, h, "POST", "/sessions/calc/keys", `{"key_list":["="]}`)
	require.Equal(t, http.StatusOK, w.Code)
	st = decodeState(t, w)
	assert.True(t, st.Pending)
	assert.Equal(t, []domain.HistoryEntry{{Expression: "2+3×4", Result: "14"}}, st.History)

	w = do(t, h, "GET", "/sessions", "")
	assert.JSONEq(t, `{"sessions":["calc","generated"]}`, sortedSessions(t, w))

	w = do(t, h, "DELETE", "/sessions/calc", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "GET", "/sessions/calc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func sortedSessions(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	ids := body["sessions"]
	if len(ids) == 2 && ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	out, _ := json.Marshal(map[string][]string{"sessions": ids})
	return string(out)
}

func TestGetSession_ETag(t *testing.T) {
	h := newHandler(t)
	do(t, h, "POST", "/sessions", `{"id":"e"}`)

	w := do(t, h, "GET", "/sessions/e", "")
	require.Equal(t, http.StatusOK, w.Code)
	tag := w.Header().Get("ETag")
	require.NotEmpty(t, tag)

	req := httptest.NewRequest("GET", "/sessions/e", nil)
	req.Header.Set("If-None-Match", tag)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	do(t, h, "POST", "/sessions/e/keys", `{"keys":"7"}`)
	w = do(t, h, "GET", "/sessions/e", "")
	assert.NotEqual(t, tag, w.Header().Get("ETag"))

	// A key that changes nothing keeps the tag.
	tag = w.Header().Get("ETag")
	do(t, h, "POST", "/sessions/e/keys", `{"keys":")"}`)
	w = do(t, h, "GET", "/sessions/e", "")
	assert.Equal(t, tag, w.Header().Get("ETag"))
}

func TestPressKeys_Errors(t *testing.T) {
	h := newHandler(t)
	do(t, h, "POST", "/sessions", `{"id":"x"}`)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown session", "/sessions/nope/keys", `{"keys":"1"}`, http.StatusNotFound},
		{"unknown key in script", "/sessions/x/keys", `{"keys":"1^2"}`, http.StatusBadRequest},
		{"unknown key in list", "/sessions/x/keys", `{"key_list":["log"]}`, http.StatusBadRequest},
		{"malformed body", "/sessions/x/keys", `{"keys":`, http.StatusBadRequest},
		{"oversized script", "/sessions/x/keys", `{"keys":"` + strings.Repeat("1", 5000) + `"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "POST", tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}

	// Rejected batches leave the session untouched.
	w := do(t, h, "GET", "/sessions/x", "")
	assert.Equal(t, "", decodeState(t, w).Buffer)
}

func TestHistoryRoutes(t *testing.T) {
	h := newHandler(t)
	do(t, h, "POST", "/sessions", `{"id":"h"}`)
	do(t, h, "POST", "/sessions/h/keys", `{"keys":"1+1= 2×3= 9"}`)

	w := do(t, h, "POST", "/sessions/h/history/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	st := decodeState(t, w)
	assert.Equal(t, "2", st.Buffer)
	assert.True(t, st.Pending)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/sessions/h/history/7", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/sessions/h/history/first", "").Code)

	w = do(t, h, "DELETE", "/sessions/h/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeState(t, w).History)
}

func TestEvaluate(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, "POST", "/evaluate", `{"expression":"(2+3)*4"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"expression":"(2+3)*4","result":"20"}`, w.Body.String())

	w = do(t, h, "POST", "/evaluate", `{"expression":"5/0"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, "POST", "/evaluate", `{"expression":"alert(1)"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	manager := session.NewManager(memory.NewStore())
	eng := abacus.New(abacus.WithLifecycleHooks(metrics.Hooks()))
	h := adapter.NewHandler(eng, manager, adapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	do(t, h, "POST", "/sessions", `{"id":"m"}`)
	do(t, h, "POST", "/sessions/m/keys", `{"keys":"4÷0="}`)

	w := do(t, h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `abacus_errors_total{kind="invalid_result"} 1`)
	assert.Contains(t, w.Body.String(), `abacus_keys_total{kind="digit"} 2`)
}

func TestSubscribeEvents_Session(t *testing.T) {
	h := newHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	_, err := http.Post(srv.URL+"/sessions", "application/json", strings.NewReader(`{"id":"sse"}`))
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/sessions/sse/events?watch=history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 32)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if strings.HasPrefix(sc.Text(), "data: ") {
				lines <- strings.TrimPrefix(sc.Text(), "data: ")
			}
		}
		close(lines)
	}()

	next := func() string {
		select {
		case l := <-lines:
			return l
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for SSE data")
			return ""
		}
	}
	assert.Equal(t, "connected", next())
	assert.Contains(t, next(), `"preview":"0"`)

	// Typing does not touch history and is filtered out; finalizing does.
	post := func(body string) {
		r, err := http.Post(srv.URL+"/sessions/sse/keys", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		r.Body.Close()
	}
	post(`{"keys":"6×7"}`)
	post(`{"keys":"="}`)

	var diff domain.StateDiff
	require.NoError(t, json.Unmarshal([]byte(next()), &diff))
	require.NotNil(t, diff.History)
	assert.Equal(t, "42", diff.History.Entries[0].Result)
	assert.Equal(t, "sse", diff.SessionID)
}

func TestSubscribeEvents_UnknownSession(t *testing.T) {
	h := newHandler(t)
	w := do(t, h, "GET", "/sessions/ghost/events", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSocket(t *testing.T) {
	h := newHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	_, err := http.Post(srv.URL+"/sessions", "application/json", strings.NewReader(`{"id":"ws"}`))
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/ws/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg adapter.SocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "state", msg.Type)
	assert.Equal(t, "ws", msg.State.SessionID)

	require.NoError(t, conn.WriteJSON(adapter.KeysRequest{Keys: "9√"}))
	gotState := false
	for !gotState {
		var m adapter.SocketMessage
		require.NoError(t, conn.ReadJSON(&m))
		if m.Type == "state" {
			gotState = true
			assert.Equal(t, "3", m.State.Buffer)
		}
	}

	require.NoError(t, conn.WriteJSON(adapter.KeysRequest{KeyList: []string{"nope"}}))
	for {
		var m adapter.SocketMessage
		require.NoError(t, conn.ReadJSON(&m))
		if m.Type == "error" {
			assert.Contains(t, m.Error, "unknown key")
			break
		}
	}
}

func TestStreamManager(t *testing.T) {
	sm := adapter.NewStreamManager()
	ch, cancel := sm.Subscribe("s")
	assert.Equal(t, 1, sm.Subscribers("s"))

	sm.Broadcast("s", "hello")
	sm.Broadcast("other", "ignored")
	assert.Equal(t, "hello", <-ch)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s"))
	_, ok := <-ch
	assert.False(t, ok)
}
