package slack

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAcker struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingAcker) Ack(req socketmode.Request, _ ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, req.EnvelopeID)
}

type channelPoster struct {
	channels chan string
}

func (c *channelPoster) PostMessageContext(_ context.Context, channelID string, _ ...slack.MsgOption) (string, string, error) {
	c.channels <- channelID
	return channelID, "", nil
}

type constantCommands struct{}

func (constantCommands) HandleCommand(context.Context, string, string) (string, bool) {
	return "ok", true
}

func startConsumer(ctx context.Context, h *Handler, events <-chan socketmode.Event, a acker, p Poster) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.consume(ctx, events, a, p)
	}()
	return done
}

func TestConsume_AcksAndAnswersMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHandler(&HandlerConfig{Commands: constantCommands{}})
	events := make(chan socketmode.Event, 1)
	a := &recordingAcker{}
	p := &channelPoster{channels: make(chan string, 1)}
	done := startConsumer(ctx, h, events, a, p)

	events <- socketmode.Event{
		Type:    socketmode.EventTypeEventsAPI,
		Request: &socketmode.Request{EnvelopeID: "env-1"},
		Data: slackevents.EventsAPIEvent{
			Type: slackevents.CallbackEvent,
			InnerEvent: slackevents.EventsAPIInnerEvent{
				Data: &slackevents.MessageEvent{User: "U1", Channel: "C1", Text: "!roll d20"},
			},
		},
	}

	select {
	case channel := <-p.channels:
		assert.Equal(t, "C1", channel)
	case <-time.After(2 * time.Second):
		t.Fatal("no reply posted")
	}

	cancel()
	<-done

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Equal(t, []string{"env-1"}, a.ids)
}

func TestConsume_StopsWithItsConnection(t *testing.T) {
	h := NewHandler(&HandlerConfig{Commands: constantCommands{}})

	// events of a dead connection never close, only the per-run context ends the consumer
	ctx, cancel := context.WithCancel(context.Background())
	done := startConsumer(ctx, h, make(chan socketmode.Event), &recordingAcker{}, &channelPoster{})

	cancel()
	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestConsume_StopsWhenEventsClose(t *testing.T) {
	h := NewHandler(&HandlerConfig{Commands: constantCommands{}})

	events := make(chan socketmode.Event)
	done := startConsumer(context.Background(), h, events, &recordingAcker{}, &channelPoster{})

	close(events)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer still running")
	}
}
