// Package slack runs the bot over a Slack Socket Mode connection
package slack

import (
	"context"
	"errors"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
)

// CommandHandler turns chat text into a reply
type CommandHandler interface {
	HandleCommand(ctx context.Context, userID, text string) (string, bool)
}

// Poster posts a reply to a channel
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Handler relays Slack message events to the command router
type Handler struct {
	botToken string
	appToken string
	commands CommandHandler
	logger   *zap.Logger
	timeout  time.Duration
}

// HandlerConfig holds configuration for the Slack handler
type HandlerConfig struct {
	// BotToken is the xoxb- token used for the Web API
	BotToken string

	// AppToken is the xapp- token used to open the socket
	AppToken string

	Commands CommandHandler
	Logger   *zap.Logger
	Timeout  time.Duration
}

// NewHandler creates a new Slack handler
func NewHandler(cfg *HandlerConfig) *Handler {
	if cfg == nil || cfg.Commands == nil {
		panic("command handler is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Handler{
		botToken: cfg.BotToken,
		appToken: cfg.AppToken,
		commands: cfg.Commands,
		logger:   logger.Named("slack"),
		timeout:  timeout,
	}
}

// Run opens a socket mode connection and serves messages until ctx is done
func (h *Handler) Run(ctx context.Context) error {
	api := slack.New(h.botToken, slack.OptionAppLevelToken(h.appToken))
	client := socketmode.New(api)

	// the consumer lives exactly as long as this connection
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.consume(runCtx, client.Events, client, api)
	}()

	err := client.RunContext(runCtx)
	cancel()
	<-done

	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return nil
	}
	return err
}

// acker acknowledges socket mode envelopes
type acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

// consume handles socket mode events until ctx is done or events closes
func (h *Handler) consume(ctx context.Context, events <-chan socketmode.Event, client acker, poster Poster) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}

			switch evt.Type {
			case socketmode.EventTypeConnected:
				h.logger.Info("connected to Slack")
			case socketmode.EventTypeConnectionError:
				h.logger.Warn("Slack connection error")
			case socketmode.EventTypeEventsAPI:
				if evt.Request != nil {
					client.Ack(*evt.Request)
				}

				apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok || apiEvent.Type != slackevents.CallbackEvent {
					continue
				}
				if msg, ok := apiEvent.InnerEvent.Data.(*slackevents.MessageEvent); ok {
					h.HandleMessage(ctx, poster, msg)
				}
			}
		}
	}
}

// HandleMessage answers a single message event. Edits, bot posts and events
// without a user are ignored.
func (h *Handler) HandleMessage(ctx context.Context, poster Poster, ev *slackevents.MessageEvent) {
	if ev == nil || ev.User == "" || ev.Channel == "" || ev.BotID != "" || ev.SubType != "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	reply, ok := h.commands.HandleCommand(ctx, ev.User, ev.Text)
	if !ok || reply == "" {
		return
	}

	if _, _, err := poster.PostMessageContext(ctx, ev.Channel, slack.MsgOptionText(reply, false)); err != nil {
		h.logger.Error("failed to post reply",
			zap.String("channel_id", ev.Channel),
			zap.String("user_id", ev.User),
			zap.Error(err))
	}
}
