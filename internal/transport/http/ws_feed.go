package http

import (
	"context"
	"strings"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
)

// liveFeed streams every broadcast chat line to a read-only observer.
// Observers that fall behind simply miss lines; they can never slow the hub.
func (h *handlers) liveFeed(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	tap := h.hub.Subscribe()
	defer h.hub.Unsubscribe(tap)

	ctx := c.Request.Context()

	// Reads are discarded; the feed is one-way.
	readCtx, cancelRead := context.WithCancel(ctx)
	defer cancelRead()
	go func() {
		for {
			if _, _, err := conn.Read(readCtx); err != nil {
				cancelRead()
				return
			}
		}
	}()

	for {
		select {
		case line, ok := <-tap:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "feed closed")
				return
			}
			line = strings.TrimRight(line, "\n")
			if err := conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
				return
			}
		case <-readCtx.Done():
			conn.Close(websocket.StatusNormalClosure, "client gone")
			return
		}
	}
}
