// Package slackbot adapts Slack Socket Mode events onto the conversation
// router and the feedback loop.
package slackbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/aniketh-deriv/smith-pm/internal/agent"
	"github.com/aniketh-deriv/smith-pm/internal/config"
	"github.com/aniketh-deriv/smith-pm/internal/feedback"
	"github.com/aniketh-deriv/smith-pm/internal/logger"
	"github.com/aniketh-deriv/smith-pm/internal/router"
)

// Bot wires Slack events to the router and reflector.
type Bot struct {
	api         *slack.Client
	sock        *socketmode.Client
	router      *router.Router
	reflector   *feedback.Reflector
	botUserID   string
	allowedBots map[string]bool
	seen        *recents
}

func New(cfg config.SlackConfig, rt *router.Router, reflector *feedback.Reflector, allowedBotIDs []string) (*Bot, error) {
	if cfg.BotToken == "" || cfg.AppToken == "" {
		return nil, fmt.Errorf("SLACK_BOT_TOKEN and SLACK_APP_TOKEN are required")
	}

	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	auth, err := api.AuthTest()
	if err != nil {
		return nil, fmt.Errorf("slack auth test failed: %w", err)
	}

	allowed := make(map[string]bool, len(allowedBotIDs))
	for _, id := range allowedBotIDs {
		allowed[id] = true
	}

	return &Bot{
		api:         api,
		sock:        socketmode.New(api),
		router:      rt,
		reflector:   reflector,
		botUserID:   auth.UserID,
		allowedBots: allowed,
		seen:        newRecents(100),
	}, nil
}

// Run consumes Socket Mode events until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	go func() {
		for evt := range b.sock.Events {
			switch evt.Type {
			case socketmode.EventTypeConnected:
				logger.Info().Msg("connected to Slack")

			case socketmode.EventTypeEventsAPI:
				apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				if evt.Request != nil {
					b.sock.Ack(*evt.Request)
				}
				b.dispatchEvent(ctx, apiEvent)

			case socketmode.EventTypeSlashCommand:
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					continue
				}
				if evt.Request != nil {
					b.sock.Ack(*evt.Request)
				}
				if cmd.Command == "/improve" {
					go b.handleImprove(ctx, cmd)
				}
			}
		}
	}()

	return b.sock.RunContext(ctx)
}

func (b *Bot) dispatchEvent(ctx context.Context, apiEvent slackevents.EventsAPIEvent) {
	switch inner := apiEvent.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		go b.handleMention(ctx, inner)
	case *slackevents.MessageEvent:
		go b.handleMessage(ctx, inner)
	}
}

func (b *Bot) handleMention(ctx context.Context, event *slackevents.AppMentionEvent) {
	if event.User == b.botUserID {
		return
	}

	text := StripMention(event.Text, b.botUserID)
	threadTS := firstNonEmpty(event.ThreadTimeStamp, event.TimeStamp)
	key := ConversationKey(event.Channel, event.ThreadTimeStamp, event.TimeStamp)

	reply := b.router.Process(ctx, key, event.User, text)
	b.post(event.Channel, threadTS, reply.Text)
}

func (b *Bot) handleMessage(ctx context.Context, event *slackevents.MessageEvent) {
	if !b.seen.remember(firstNonEmpty(event.ClientMsgID, event.TimeStamp)) {
		logger.Debug().Str("ts", event.TimeStamp).Msg("skipping already processed message")
		return
	}

	// Mentions arrive through handleMention as well; let that path own them.
	if strings.Contains(event.Text, "<@"+b.botUserID+">") {
		return
	}
	if event.User == b.botUserID {
		return
	}
	// Skip messages from bots except the configured allowlist.
	if event.BotID != "" && !b.allowedBots[event.BotID] {
		return
	}
	if event.SubType == "bot_message" && event.BotID == "" {
		return
	}

	userID := event.User
	if event.BotID != "" {
		userID = "bot_" + event.BotID
	}

	threadTS := firstNonEmpty(event.ThreadTimeStamp, event.TimeStamp)
	key := ConversationKey(event.Channel, event.ThreadTimeStamp, event.TimeStamp)

	reply := b.router.Process(ctx, key, userID, event.Text)
	b.post(event.Channel, threadTS, reply.Text)
}

func (b *Bot) handleImprove(ctx context.Context, cmd slack.SlashCommand) {
	summary, err := b.reflector.Improve(ctx, agent.DispatcherName, cmd.UserID, cmd.Text)
	if err != nil {
		logger.Error().Err(err).Str("user_id", cmd.UserID).Msg("improve command failed")
		b.post(cmd.ChannelID, "", fmt.Sprintf("Error processing improvement feedback: %v", err))
		return
	}
	b.post(cmd.ChannelID, "", "Thank you for your feedback! I've used it to improve:\n\n"+summary)
}

// post sends a message, in-thread when threadTS is set. On internal errors
// the caller has already produced a diagnostic string; posting failures can
// only be logged.
func (b *Bot) post(channel, threadTS, text string) {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	if _, _, err := b.api.PostMessage(channel, opts...); err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("failed to post message")
	}
}

// ConversationKey derives the thread identity for the router: channel plus
// thread timestamp, falling back to the message's own timestamp when the
// message starts a new thread.
func ConversationKey(channel, threadTS, ts string) string {
	return channel + "::" + firstNonEmpty(threadTS, ts)
}

// StripMention removes the bot's own mention tag from message text.
func StripMention(text, botUserID string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "<@"+botUserID+">", ""))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
