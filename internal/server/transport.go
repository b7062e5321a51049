// Package server adapts raw TCP connections and WebSocket connections to the
// chunk-oriented Transport used by sessions.
package server

import (
	"net"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const writeWait = 10 * time.Second

// Transport is the connection a Session exclusively owns. ReadChunk returns
// the bytes of a single read; Write sends one outbound line.
type Transport interface {
	ReadChunk() ([]byte, error)
	Write(p []byte) error
	Close() error
	RemoteAddr() string
}

type tcpTransport struct {
	conn net.Conn
	buf  []byte
}

func newTCPTransport(conn net.Conn, maxMessageSize int64) *tcpTransport {
	return &tcpTransport{
		conn: conn,
		buf:  make([]byte, maxMessageSize),
	}
}

func (t *tcpTransport) ReadChunk() ([]byte, error) {
	for {
		n, err := t.conn.Read(t.buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, t.buf[:n])
			return chunk, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (t *tcpTransport) Write(p []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return errors.Wrap(err, "set write deadline")
	}
	_, err := t.conn.Write(p)
	return err
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

func (t *tcpTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

// wsTransport treats every WebSocket data frame as one inbound chunk and
// sends every outbound line as its own text frame.
type wsTransport struct {
	conn *websocket.Conn
	addr string
}

func newWSTransport(conn *websocket.Conn, addr string, maxMessageSize int64) *wsTransport {
	conn.SetReadLimit(maxMessageSize)
	return &wsTransport{conn: conn, addr: addr}
}

func (t *wsTransport) ReadChunk() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (t *wsTransport) Write(p []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return errors.Wrap(err, "set write deadline")
	}
	return t.conn.WriteMessage(websocket.TextMessage, p)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

func (t *wsTransport) RemoteAddr() string {
	return t.addr
}
