package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/notes-bot/internal/session"
	"github.com/xaenox/notes-bot/internal/store"
)

// Sender is the part of the Telegram API the bot writes through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Opener restores or creates the session of a storage namespace.
type Opener interface {
	Open(ctx context.Context, namespace string) *session.Session
}

// chat is one Telegram chat. Commands of a chat run one at a time.
type chat struct {
	mu      sync.Mutex
	id      int64
	session *session.Session
}

type Bot struct {
	api           *tgbotapi.BotAPI
	sender        Sender
	sessions      Opener
	logger        *zap.Logger
	updateTimeout int

	mu    sync.Mutex
	chats map[int64]*chat
}

func New(token string, debug bool, updateTimeout int, sessions Opener, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = debug

	b := newBot(api, sessions, logger)
	b.api = api
	if updateTimeout > 0 {
		b.updateTimeout = updateTimeout
	}
	logger.Info("Authorized on Telegram", zap.String("account", api.Self.UserName))
	return b, nil
}

func newBot(sender Sender, sessions Opener, logger *zap.Logger) *Bot {
	return &Bot{
		sender:        sender,
		sessions:      sessions,
		logger:        logger,
		updateTimeout: 60,
		chats:         make(map[int64]*chat),
	}
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.updateTimeout

	updates := b.api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil {
			continue
		}
		go b.handleMessage(ctx, update.Message)
	}
	return ctx.Err()
}

func namespace(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func (b *Bot) chat(ctx context.Context, chatID int64) *chat {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.chats[chatID]
	if !ok {
		c = &chat{id: chatID, session: b.sessions.Open(ctx, namespace(chatID))}
		b.chats[chatID] = c
	}
	return c
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	c := b.chat(ctx, message.Chat.ID)
	c.mu.Lock()
	defer c.mu.Unlock()

	var reply string
	if message.IsCommand() {
		reply = b.handleCommand(ctx, c, message)
	} else {
		reply = b.handleText(ctx, c, message)
	}
	if reply != "" {
		b.sendMarkdown(c.id, reply)
	}
	b.flush(c)
}

// flush sends the queued session notifications to the chat.
func (b *Bot) flush(c *chat) {
	for _, n := range c.session.DrainNotifications() {
		b.sendMessage(c.id, notificationText(n))
	}
}

func notificationText(n store.Notification) string {
	switch n.Kind {
	case store.NotifySuccess:
		return "✅ " + n.Message
	case store.NotifyError:
		return "⚠️ " + n.Message
	}
	return "ℹ️ " + n.Message
}

// escapeMarkdown escapes the characters MarkdownV2 reserves.
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send markdown message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

// deleteMessage removes a message that carried a secret.
func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.sender.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Warn("Failed to delete message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID))
	}
}
