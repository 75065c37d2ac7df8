package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
)

const eventChannelPrefix = "depictionator:events:"

// ChannelFor is the redis pub/sub channel carrying watcher events for one
// workspace.
func ChannelFor(workspaceID string) string {
	return eventChannelPrefix + workspaceID
}

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event domain.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, ChannelFor(event.WorkspaceID), jsonstr).Err()
	if err != nil {
		return err

	}

	return nil
}

// Realtime bridges the workspace event stream to one websocket session.
// input carries the set of workspace IDs the session wants to follow (each
// send replaces the previous set); matching events go out on output. Returns
// when ctx is cancelled or input closes.
func (s *SignalService) Realtime(ctx context.Context, input <-chan []string, output chan<- domain.Event) {
	pubsub := s.rdb.PSubscribe(ctx, eventChannelPrefix+"*")
	defer pubsub.Close()

	messages := pubsub.Channel()
	watching := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return
		case workspaces, ok := <-input:
			if !ok {
				return
			}
			watching = map[string]bool{}
			for _, id := range workspaces {
				watching[id] = true
			}
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.ErrorContext(
					ctx, "Failed to decode event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}

			if !watching[event.WorkspaceID] {
				continue
			}

			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
