package api

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parametriq/designflow/bus"
	"github.com/parametriq/designflow/session"
)

// handleEvents upgrades to a websocket and relays iteration-complete
// events from the message bus to the client until it disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		writeError(w, http.StatusNotImplemented, "no_bus", "message bus not configured")
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "relay stopped")

	subscriberID := "ws-" + uuid.New().String()[:8]
	events := make(chan *bus.Message, 32)

	err = s.bus.Subscribe(subscriberID, session.TopicIterationComplete, func(_ context.Context, msg *bus.Message) {
		select {
		case events <- msg:
		default:
			// Slow client; drop rather than stall the bus worker.
		}
	})
	if err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer s.bus.Unsubscribe(subscriberID, session.TopicIterationComplete)

	s.logger.Info("event relay connected", zap.String("subscriber_id", subscriberID))

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case msg := <-events:
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				s.logger.Debug("event relay write failed, client gone",
					zap.String("subscriber_id", subscriberID),
					zap.Error(err),
				)
				return
			}
		}
	}
}
