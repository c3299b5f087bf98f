package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Intents the bot needs to read plain chat commands
const Intents = discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// CommandHandler turns chat text into a reply
type CommandHandler interface {
	HandleCommand(ctx context.Context, userID, text string) (string, bool)
}

// Sender posts a reply to a channel
type Sender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Handler relays Discord messages to the command router
type Handler struct {
	token    string
	commands CommandHandler
	logger   *zap.Logger
	timeout  time.Duration
}

// HandlerConfig holds configuration for the Discord handler
type HandlerConfig struct {
	Token    string
	Commands CommandHandler
	Logger   *zap.Logger

	// Timeout bounds the handling of one message. Defaults to 30s.
	Timeout time.Duration
}

// NewHandler creates a new Discord handler
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
		token:    cfg.Token,
		commands: cfg.Commands,
		logger:   logger.Named("discord"),
		timeout:  timeout,
	}
}

// Run connects to Discord and serves messages until ctx is done
func (h *Handler) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + h.token)
	if err != nil {
		return err
	}
	dg.Identify.Intents = Intents

	dg.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		h.logger.Info("logged on", zap.String("user", r.User.Username))
	})
	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		selfID := ""
		if s.State != nil && s.State.User != nil {
			selfID = s.State.User.ID
		}
		h.HandleMessage(ctx, s, selfID, m.Message)
	})

	if err := dg.Open(); err != nil {
		return err
	}

	<-ctx.Done()

	if err := dg.Close(); err != nil {
		h.logger.Warn("failed to close Discord connection", zap.Error(err))
	}
	return nil
}

// HandleMessage answers a single message. Messages from the bot itself and
// from other bots are ignored.
func (h *Handler) HandleMessage(ctx context.Context, sender Sender, selfID string, m *discordgo.Message) {
	if m == nil || m.Author == nil {
		return
	}
	if m.Author.ID == selfID || m.Author.Bot {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	reply, ok := h.commands.HandleCommand(ctx, m.Author.ID, m.Content)
	if !ok || reply == "" {
		return
	}

	if _, err := sender.ChannelMessageSend(m.ChannelID, reply); err != nil {
		h.logger.Error("failed to send reply",
			zap.String("channel_id", m.ChannelID),
			zap.String("user_id", m.Author.ID),
			zap.Error(err))
	}
}
