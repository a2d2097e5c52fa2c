package telegram

import (
	"context"
	"strings"

	"servicepulse/backend/internal/apperr"
	"servicepulse/backend/internal/models"
)

// VendorDirectory is the vendor storage the commands need. The complaint
// service satisfies it.
type VendorDirectory interface {
	LinkTelegramChat(ctx context.Context, email string, chatID int64) (models.Vendor, error)
	SetAvailabilityByChatID(ctx context.Context, chatID int64, available bool) (models.Vendor, error)
}

// handleStart links the chat to the vendor registered with the given email.
func (s *BotService) handleStart(ctx context.Context, chatID int64, args string) {
	email := strings.TrimSpace(args)
	if email == "" {
		s.reply(chatID, s.text("start_usage"))
		return
	}

	v, err := s.vendors.LinkTelegramChat(ctx, email, chatID)
	switch {
	case apperr.Is(err, apperr.TypeNotFound):
		s.reply(chatID, s.text("start_unknown_vendor", email))
	case err != nil:
		s.log.Error("failed to link telegram chat", "chat_id", chatID, "error", err)
		s.reply(chatID, s.text("error_generic"))
	default:
		s.log.Info("telegram chat linked", "vendor_id", v.VendorID, "chat_id", chatID)
		s.reply(chatID, s.text("start_linked", v.Name))
	}
}

// handleAvailability processes /available_on and /available_off.
func (s *BotService) handleAvailability(ctx context.Context, chatID int64, available bool) {
	_, err := s.vendors.SetAvailabilityByChatID(ctx, chatID, available)
	switch {
	case apperr.Is(err, apperr.TypeNotFound):
		s.reply(chatID, s.text("not_linked"))
	case err != nil:
		// Помилка сховища
		s.log.Error("failed to update availability", "chat_id", chatID, "error", err)
		s.reply(chatID, s.text("error_generic"))
	case available:
		s.reply(chatID, s.text("available_on"))
	default:
		s.reply(chatID, s.text("available_off"))
	}
}
