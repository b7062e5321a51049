// Package testhelpers provides common utilities and helper functions for testing the LineChat server.
//
// It wraps raw TCP and WebSocket client connections so tests can send protocol
// lines and assert on what the server writes back without repeating deadline
// and buffering boilerplate.
package testhelpers

import (
	"bufio"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// DefaultTimeout bounds every blocking read performed by the helpers.
const DefaultTimeout = 2 * time.Second

// TestOrigin is the Origin header sent by ConnectWebSocket.
const TestOrigin = "http://localhost:8080"

// LineClient is a raw TCP chat client.
type LineClient struct {
	Conn   net.Conn
	reader *bufio.Reader
}

// DialTCP connects to addr and closes the connection when the test ends.
func DialTCP(t *testing.T, addr string) *LineClient {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, DefaultTimeout)
	require.NoError(t, err, "dial %s", addr)
	t.Cleanup(func() { _ = conn.Close() })

	return &LineClient{Conn: conn, reader: bufio.NewReader(conn)}
}

// Send writes raw text in a single write call.
func (c *LineClient) Send(t *testing.T, text string) {
	t.Helper()

	require.NoError(t, c.Conn.SetWriteDeadline(time.Now().Add(DefaultTimeout)))
	_, err := c.Conn.Write([]byte(text))
	require.NoError(t, err)
}

// SendBytes writes raw bytes in a single write call.
func (c *LineClient) SendBytes(t *testing.T, data []byte) {
	t.Helper()

	require.NoError(t, c.Conn.SetWriteDeadline(time.Now().Add(DefaultTimeout)))
	_, err := c.Conn.Write(data)
	require.NoError(t, err)
}

// ReadLine returns the next newline-terminated line, including the newline.
func (c *LineClient) ReadLine(t *testing.T) string {
	t.Helper()

	require.NoError(t, c.Conn.SetReadDeadline(time.Now().Add(DefaultTimeout)))
	line, err := c.reader.ReadString('\n')
	require.NoError(t, err, "read line (partial %q)", line)
	return line
}

// ReadLines reads exactly n lines.
func (c *LineClient) ReadLines(t *testing.T, n int) []string {
	t.Helper()

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		lines = append(lines, c.ReadLine(t))
	}
	return lines
}

// ExpectNoLine asserts that nothing arrives within d.
func (c *LineClient) ExpectNoLine(t *testing.T, d time.Duration) {
	t.Helper()

	require.NoError(t, c.Conn.SetReadDeadline(time.Now().Add(d)))
	line, err := c.reader.ReadString('\n')
	require.Error(t, err, "unexpected line %q", line)

	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	require.True(t, netErr.Timeout(), "expected a read timeout, got %v", err)
}

// ExpectClosed asserts that the server closes the connection within DefaultTimeout.
func (c *LineClient) ExpectClosed(t *testing.T) {
	t.Helper()

	require.NoError(t, c.Conn.SetReadDeadline(time.Now().Add(DefaultTimeout)))
	_, err := c.reader.ReadString('\n')
	require.Error(t, err)

	var netErr net.Error
	if errors.As(err, &netErr) {
		require.False(t, netErr.Timeout(), "connection was not closed by the server")
	}
}

// Login sends "login:<name>\r\n" and returns the greeting line.
func (c *LineClient) Login(t *testing.T, name string) string {
	t.Helper()

	c.Send(t, "login:"+name+"\r\n")
	return c.ReadLine(t)
}

// ConnectWebSocket opens a WebSocket connection to url with an allowed Origin
// header and closes it when the test ends.
func ConnectWebSocket(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, err := DialWebSocket(url, TestOrigin)
	require.NoError(t, err, "dial %s", url)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// DialWebSocket opens a WebSocket connection with the given Origin header.
func DialWebSocket(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: DefaultTimeout,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// ReadText reads the next WebSocket frame as text.
func ReadText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(DefaultTimeout)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

// SendText writes text as a single WebSocket text frame.
func SendText(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(text)))
}
