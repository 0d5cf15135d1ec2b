package tapehui

import (
	"context"
	"io"

	"github.com/gofiber/contrib/websocket"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"tapeweb.org/tape/internal/cadata"
)

// Status is the final message of a websocket session.
type Status struct {
	Steps uint64 `json:"steps"`
	Error string `json:"error,omitempty"`
}

// handleWS runs a stored program interactively.
// Binary or text messages from the client are fed to the input port, and an empty message closes it.
// Each output byte is sent as a binary message, followed by a Status when the machine stops.
func (s *Server) handleWS(c *websocket.Conn) {
	ctx := s.bgCtx
	cid, err := cadata.ParseID(c.Params("id"))
	if err != nil {
		c.WriteJSON(Status{Error: err.Error()})
		return
	}
	logctx.Info(ctx, "started websocket", zap.Stringer("program", cid))
	defer logctx.Info(ctx, "closing websocket", zap.Stringer("program", cid))

	ctx, cf := context.WithCancel(ctx)
	defer cf()
	in := newWSReader(ctx, c)
	info, err := s.sys.Run(ctx, cid, in, wsWriter{c}, s.cfg)
	if info == nil {
		logctx.Error(ctx, "websocket run", zap.Error(err))
		c.WriteJSON(Status{Error: err.Error()})
		return
	}
	if err := c.WriteJSON(Status{Steps: info.Steps, Error: info.Error}); err != nil {
		logctx.Error(ctx, "websocket status", zap.Error(err))
	}
}

// wsReader reads the messages received on a websocket connection.
// It returns io.EOF after an empty message, or once the connection is closed.
type wsReader struct {
	ctx  context.Context
	msgs chan []byte
	buf  []byte
}

func newWSReader(ctx context.Context, c *websocket.Conn) *wsReader {
	r := &wsReader{ctx: ctx, msgs: make(chan []byte)}
	go func() {
		defer close(r.msgs)
		for {
			_, data, err := c.ReadMessage()
			if err != nil || len(data) == 0 {
				return
			}
			select {
			case <-ctx.Done():
				return
			case r.msgs <- data:
			}
		}
	}()
	return r
}

func (r *wsReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		select {
		case <-r.ctx.Done():
			return 0, r.ctx.Err()
		case data, ok := <-r.msgs:
			if !ok {
				return 0, io.EOF
			}
			r.buf = data
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

type wsWriter struct {
	c *websocket.Conn
}

func (w wsWriter) Write(p []byte) (int, error) {
	if err := w.c.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
