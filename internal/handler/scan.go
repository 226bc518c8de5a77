package handler

import (
	"context"
	"errors"
	"fmt"
	"presence-tracker/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// scan идентифицирует сотрудника по привязанному чату и передает событие в журнал
func (h *Handler) scan(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if h.config.IsAdmin(chatID) {
		name := "DB"
		if message.From != nil && message.From.FirstName != "" {
			name = message.From.FirstName
		}
		h.reply(message, fmt.Sprintf("👑 Bonjour Administrateur %s. Accès autorisé.", name))
		return
	}

	identity, err := h.roster.Identify(ctx, chatID)
	var rejection *models.IdentityRejection
	if err != nil && !errors.As(err, &rejection) {
		h.replyError(message, err)
		return
	}

	outcome := h.attendance.RecordIdentified(ctx, identity, err)
	h.reply(message, formatOutcome(outcome))
}

// linkChat привязывает чат к matricule
func (h *Handler) linkChat(ctx context.Context, message *tgbotapi.Message, args string) {
	if args == "" {
		h.reply(message, "❌ Indiquez votre matricule.\nExemple: /link E042")
		return
	}

	employee, err := h.roster.LinkChat(ctx, args, message.Chat.ID)
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, fmt.Sprintf("✅ Compte lié: %s (%s, %s).\nUtilisez /scan pour pointer.",
		employee.FullName(), employee.Matricule, employee.Departement))
}
