package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Stream deadlines. The read deadline must comfortably exceed the one-second
// countdown tick so an idle participant who only watches the timer is never
// disconnected between actions.
const (
	writeDeadline = 10 * time.Second
	readDeadline  = 5 * time.Minute
)

// WriteTyped sends one typed event frame, refreshing the write deadline
// first so a stalled client cannot block the countdown pump forever.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

// WriteError sends an ERROR event frame with the given message.
func WriteError(conn *websocket.Conn, msg string) error {
	return WriteTyped(conn, ErrorResponse{Event: EventError, Error: msg})
}

// ReadJSON blocks for the next action frame, bounded by the idle deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return err
	}
	return conn.ReadJSON(v)
}
