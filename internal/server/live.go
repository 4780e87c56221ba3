package server

import (
	"context"

	"github.com/conneroisu/sizekit/internal/responsive"
)

// handleMessage routes a client report. Viewport reports drive a viewport
// owned by the client; container reports feed the shared container
// observer under ids namespaced by client.
func (s *Server) handleMessage(ctx context.Context, c *Client, msg Message) {
	switch msg.Type {
	case MessageViewport:
		s.handleViewport(ctx, c, msg.Width)
	case MessageContainer:
		if msg.ID == "" {
			c.Send(Message{Type: MessageError, Error: "container report requires an id"})
			return
		}
		s.handleContainer(ctx, c, msg.ID, msg.Width)
	default:
		s.logger.Debug(ctx, "ignoring unknown message", "client", c.id, "type", msg.Type)
		c.Send(Message{Type: MessageError, Error: "unknown message type " + msg.Type})
	}
}

func (s *Server) handleViewport(ctx context.Context, c *Client, width float64) {
	c.mu.Lock()
	vp := c.viewport
	if vp == nil {
		vp = responsive.NewViewport(s.matcher, s.logger)
		vp.Subscribe(func(ch responsive.Change) {
			c.Send(Message{
				Type:   MessageBreakpoint,
				Width:  float64(ch.Width),
				Name:   ch.Current,
				Active: ch.Active,
			})
		})
		c.viewport = vp
		c.resources.Add(vp.Close)
	}
	first := !c.viewportSeen
	c.viewportSeen = true
	c.mu.Unlock()

	// The first report is a silent baseline; tell the page where it starts.
	if !vp.Update(ctx, width) && first {
		c.Send(Message{
			Type:   MessageBreakpoint,
			Width:  float64(vp.Width()),
			Name:   vp.Current(),
			Active: vp.Active(),
		})
	}
}

func (s *Server) handleContainer(ctx context.Context, c *Client, id string, width float64) {
	key := c.id + "/" + id
	px := responsive.ToWidth(width)

	c.mu.Lock()
	box, ok := c.containers[id]
	if !ok {
		box = responsive.NewBox(key, px)
		c.containers[id] = box
	}
	c.mu.Unlock()

	if ok {
		box.SetWidth(px)
		s.observer.Report(key, px)
		return
	}

	stop, err := s.observer.Observe(box, s.opts.Breakpoints, func(ev responsive.ContainerEvent) {
		c.Send(Message{
			Type:  MessageBreakpoint,
			ID:    id,
			Width: float64(ev.Width),
			Name:  ev.Name(),
		})
	})
	if err != nil {
		s.logger.Warn(ctx, err, "container observation failed", "client", c.id, "container", id)
		c.Send(Message{Type: MessageError, ID: id, Error: err.Error()})
		return
	}
	c.resources.Add(stop)
}
