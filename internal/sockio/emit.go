package sockio

import (
	"context"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// Emit sends a named event with one payload argument. Delivery is fire-and-forget.
func (c *Client) Emit(ctx context.Context, event string, payload any) error {
	c.connM.RLock()
	conn := c.conn
	c.connM.RUnlock()
	if conn == nil || c.State() != StateConnected {
		return ErrNotConnected
	}

	p, err := EventPacket(c.namespace, event, payload)
	if err != nil {
		return err
	}

	// bounded deadline to prevent indefinite blocking
	wctx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := conn.Write(wctx, websocket.MessageText, []byte(p.Encode())); err != nil {
		c.logger.Warn("socket_emit_failed", zap.String("event", event), zap.Error(err))
		return err
	}
	c.logger.Debug("socket_emit", zap.String("event", event))
	return nil
}
