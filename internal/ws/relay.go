package ws

import (
	"CaseLink/internal/lib/sl"
	"context"
	"encoding/json"
	"log/slog"
)

// relayMessage carries an event between instances. Origin is the publishing
// instance, which skips its own copy.
type relayMessage struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
}

func (h *Hub) publishRelay(ctx context.Context, ev *roomEvent) {
	data, err := json.Marshal(ev.event.Data)
	if err != nil {
		return
	}
	msg, err := json.Marshal(&relayMessage{
		Origin: h.instanceID,
		Room:   ev.room,
		Type:   ev.event.Type,
		Data:   data,
	})
	if err != nil {
		return
	}
	if err = h.rdb.Publish(ctx, h.channel, msg).Err(); err != nil {
		h.log.With(slog.String("room", ev.room)).Warn("relay publish", sl.Err(err))
	}
}

// subscribeRelay rebroadcasts events published by other instances to local sockets.
func (h *Hub) subscribeRelay(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, h.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleRelay([]byte(msg.Payload))
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleRelay(payload []byte) {
	var rm relayMessage
	if err := json.Unmarshal(payload, &rm); err != nil {
		h.log.Debug("relay decode", sl.Err(err))
		return
	}
	if rm.Origin == h.instanceID {
		return
	}
	// local delivery only, never re-published
	h.publish(&roomEvent{room: rm.Room, event: &Event{Type: rm.Type, Data: rm.Data}})
}
