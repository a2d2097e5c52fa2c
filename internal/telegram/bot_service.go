// Package telegram connects vendors to the system through a Telegram bot.
// Vendors link their chat with /start <email>, toggle availability with
// /available_on and /available_off, and receive a message whenever jobs are
// assigned to them.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/localization"
	"servicepulse/backend/internal/logger"
	"servicepulse/backend/internal/models"
)

// Sender is the part of *tgbotapi.BotAPI the service sends through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotService receives Telegram updates and delivers job notices.
type BotService struct {
	api       *tgbotapi.BotAPI
	sender    Sender
	vendors   VendorDirectory
	localizer *localization.Localizer
	lang      string
	log       *slog.Logger
}

// NewBotService authorises against the Bot API with cfg.BotToken.
func NewBotService(cfg config.TelegramConfig, vendors VendorDirectory) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	bot.Debug = false

	localizer, err := localization.NewLocalizer()
	if err != nil {
		return nil, fmt.Errorf("failed to create localizer: %w", err)
	}

	s := NewBotServiceWithSender(bot, vendors, localizer, cfg.Language)
	s.api = bot
	s.log.Info("authorized on telegram", "account", bot.Self.UserName)
	return s, nil
}

// NewBotServiceWithSender builds a service that sends through sender. It
// cannot poll for updates; feed them to HandleUpdate instead.
func NewBotServiceWithSender(sender Sender, vendors VendorDirectory, localizer *localization.Localizer, lang string) *BotService {
	if lang == "" {
		lang = localization.DefaultLanguage
	}
	return &BotService{
		sender:    sender,
		vendors:   vendors,
		localizer: localizer,
		lang:      lang,
		log:       logger.WithComponent("telegram"),
	}
}

// Run is the main loop for receiving Telegram updates. It returns when ctx
// is cancelled.
func (s *BotService) Run(ctx context.Context) {
	if s.api == nil {
		return
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.api.GetUpdatesChan(u)
	defer s.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches a single update. Anything other than a command is
// answered with the usage hint.
func (s *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID

	if !msg.IsCommand() {
		s.reply(chatID, s.text("unknown_command"))
		return
	}

	switch msg.Command() {
	case "start":
		s.handleStart(ctx, chatID, msg.CommandArguments())
	case "available_on":
		s.handleAvailability(ctx, chatID, true)
	case "available_off":
		s.handleAvailability(ctx, chatID, false)
	default:
		s.reply(chatID, s.text("unknown_command"))
	}
}

// AnnounceAssignment tells a linked vendor about newly assigned jobs.
// Vendors without a linked chat are skipped.
func (s *BotService) AnnounceAssignment(_ context.Context, vendor models.Vendor, jobs []models.Complaint) error {
	if vendor.TelegramChatID == 0 || len(jobs) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(s.localizer.Format(s.lang, "jobs_assigned", len(jobs)))
	for _, j := range jobs {
		b.WriteString("\n")
		b.WriteString(s.localizer.Format(s.lang, "job_line", j.Title, j.Category, j.Block, j.Urgency))
	}

	if _, err := s.sender.Send(tgbotapi.NewMessage(vendor.TelegramChatID, b.String())); err != nil {
		return fmt.Errorf("telegram notice to vendor %s: %w", vendor.VendorID, err)
	}
	return nil
}

func (s *BotService) text(key string, args ...any) string {
	return s.localizer.Format(s.lang, key, args...)
}

func (s *BotService) reply(chatID int64, text string) {
	if _, err := s.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		s.log.Error("failed to send telegram reply", "chat_id", chatID, "error", err)
	}
}
