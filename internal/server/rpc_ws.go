package server

import (
	"context"
	"net/http"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
)

// WSChannel adapts a coder/websocket.Conn to the jrpc2 Channel interface.
// Each WebSocket connection gets one WSChannel.
type WSChannel struct {
	conn *cws.Conn
	ctx  context.Context
}

// NewWSChannel wraps conn as a jrpc2 channel bound to ctx.
func NewWSChannel(ctx context.Context, conn *cws.Conn) *WSChannel {
	return &WSChannel{conn: conn, ctx: ctx}
}

// Send writes a JSON-RPC message to the WebSocket connection.
func (c *WSChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, data)
}

// Recv reads a JSON-RPC message from the WebSocket connection.
func (c *WSChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

// Close shuts down the WebSocket connection with a normal closure status.
func (c *WSChannel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "")
}

// serveWS upgrades the request and runs a push-capable jrpc2 server on it
// until the client goes away.
func (rs *RPCServer) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, nil)
	if err != nil {
		rs.log.Warning("websocket accept: %v", err)
		return
	}
	ch := NewWSChannel(r.Context(), conn)
	srv := jrpc2.NewServer(rs.methods, &jrpc2.ServerOptions{AllowPush: true})
	srv.Start(ch)
	rs.notifier.Register(srv)
	defer rs.notifier.Unregister(srv)
	if err := srv.Wait(); err != nil {
		rs.log.Info("websocket closed: %v", err)
	}
}
