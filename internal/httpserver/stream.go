package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/levelup_storefront/internal/events"
	"github.com/Skotchmaster/levelup_storefront/internal/logging"
)

const (
	streamBuffer    = 16
	streamKeepAlive = 15 * time.Second
)

// Events streams this device's bus events as server-sent events. Payloads
// are redacted; a client that falls behind loses events rather than
// stalling the publisher.
func (s *Server) Events(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "events.stream")
	device := deviceID(c)

	ch := make(chan events.Event, streamBuffer)
	unsubscribe := s.d.Bus.SubscribeMany(func(_ context.Context, ev events.Event) {
		if ev.Scope != device {
			return
		}
		select {
		case ch <- ev.Public():
		default:
			l.Warn("event_dropped", "topic", string(ev.Topic))
		}
	}, events.TopicSession, events.TopicNotice, events.TopicCart, events.TopicCheckout)
	defer unsubscribe()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return nil
	}
	w.Flush()

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				l.Error("event_encode_failed", "topic", string(ev.Topic), "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Topic, data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
