package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/linechat/internal/server"
	"github.com/Tyrowin/linechat/internal/testhelpers"
)

func startGateway(t *testing.T, hub *server.Hub) string {
	t.Helper()

	cfg := server.NewConfig()
	ts := httptest.NewServer(server.SetupRoutes(server.NewGateway(hub, *cfg)))
	t.Cleanup(ts.Close)
	return ts.URL
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"
}

func TestHealthHandler(t *testing.T) {
	hub := server.NewHub(10, 16)
	g := server.NewGateway(hub, *server.NewConfig())

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rr := httptest.NewRecorder()
		g.HealthHandler(rr, httptest.NewRequest(method, "/", http.NoBody))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
		assert.Equal(t, "LineChat server is running!", rr.Body.String())
	}
}

func TestStatsHandler(t *testing.T) {
	hub := server.NewHub(10, 16)
	hub.AppendHistory("Alice", "hi")
	g := server.NewGateway(hub, *server.NewConfig())

	rr := httptest.NewRecorder()
	g.StatsHandler(rr, httptest.NewRequest(http.MethodGet, "/stats", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code)
	var stats server.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, server.Stats{History: 1}, stats)

	rr = httptest.NewRecorder()
	g.StatsHandler(rr, httptest.NewRequest(http.MethodPost, "/stats", http.NoBody))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestWebSocketHandler_RejectsNonGet(t *testing.T) {
	hub := server.NewHub(10, 16)
	url := startGateway(t, hub)

	resp := postRequest(t, url+"/ws")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWebSocketHandler_RejectsDisallowedOrigin(t *testing.T) {
	hub := server.NewHub(10, 16)
	url := startGateway(t, hub)

	_, err := testhelpers.DialWebSocket(wsURL(url), "http://evil.example")
	assert.Error(t, err)

	_, err = testhelpers.DialWebSocket(wsURL(url), "")
	assert.Error(t, err)
	assert.Equal(t, 0, hub.SessionCount())
}

func TestWebSocketHandler_SharesHubWithTCP(t *testing.T) {
	hub, addr := startTCPServer(t)
	url := startGateway(t, hub)

	ws := testhelpers.ConnectWebSocket(t, wsURL(url))
	waitForSessions(t, hub, 1)
	testhelpers.SendText(t, ws, "login:Alice")
	assert.Equal(t, "Привет, Alice!\n", testhelpers.ReadText(t, ws))

	tcp := testhelpers.DialTCP(t, addr)
	waitForSessions(t, hub, 2)
	assert.Equal(t, "Логин ALICE занят, попробуйте другой\n", tcp.Login(t, "ALICE"))
	assert.Equal(t, "Привет, Bob!\n", tcp.Login(t, "Bob"))

	testhelpers.SendText(t, ws, "Hello from the browser")
	assert.Equal(t, "Alice: Hello from the browser\n", tcp.ReadLine(t))

	tcp.Send(t, "Hello from the terminal\r\n")
	assert.Equal(t, "Bob: Hello from the terminal\n", testhelpers.ReadText(t, ws))

	require.NoError(t, ws.Close())
	waitForSessions(t, hub, 1)
}

func postRequest(t *testing.T, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(url, "text/plain", http.NoBody)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}
