package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/auth"
	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/Freeeeeet/tutorhub/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const maxListedBookings = 10

const helpText = "📚 Commands:\n\n" +
	"/start <token> - Link this chat to your TutorHub account\n" +
	"/mybookings - Your upcoming sessions\n" +
	"/help - Show this help\n\n" +
	"Once linked, booking notifications are delivered to this chat."

// HandleStart обрабатывает команду /start
func (c *BotController) HandleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	token := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/start"))
	if token == "" {
		c.sendMessage(ctx, chatID, "👋 Welcome to TutorHub!\n\n"+
			"To receive booking notifications, send /start followed by your access token.\n\n"+helpText)
		return
	}

	principal, err := c.verifier.Verify(token)
	if err != nil {
		c.logger.Info("Rejected chat link token", zap.Int64("chat_id", chatID), zap.Error(err))
		c.sendMessage(ctx, chatID, "❌ The token is invalid or expired.")
		return
	}

	user, err := c.users.LinkTelegramChat(ctx, principal, chatID)
	if err != nil {
		switch service.KindOf(err) {
		case service.KindInternal:
			c.logger.Error("Failed to link chat", zap.Int64("chat_id", chatID), zap.Error(err))
			c.sendMessage(ctx, chatID, "❌ Something went wrong. Please try again later.")
		default:
			c.sendMessage(ctx, chatID, "❌ "+err.Error())
		}
		return
	}

	c.sendMessage(ctx, chatID, fmt.Sprintf("✅ Linked to %s. Booking notifications will arrive here.", user.Name))
}

// HandleHelp обрабатывает команду /help
func (c *BotController) HandleHelp(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	c.sendMessage(ctx, update.Message.Chat.ID, helpText)
}

// HandleMyBookings обрабатывает команду /mybookings
func (c *BotController) HandleMyBookings(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, ok := c.requireUser(ctx, chatID)
	if !ok {
		return
	}

	principal := auth.Principal{UserID: user.ID, Role: user.Role}
	var (
		events []model.CalendarEvent
		err    error
	)
	if principal.IsTutor() {
		events, err = c.bookings.ListForTutor(ctx, principal)
	} else {
		events, err = c.bookings.ListForStudent(ctx, principal)
	}
	if err != nil {
		c.logger.Error("Failed to list bookings", zap.String("user_id", user.ID.String()), zap.Error(err))
		c.sendMessage(ctx, chatID, "❌ Something went wrong. Please try again later.")
		return
	}

	c.sendMessage(ctx, chatID, formatUpcoming(events, time.Now()))
}

// requireUser находит аккаунт, привязанный к чату
func (c *BotController) requireUser(ctx context.Context, chatID int64) (*model.User, bool) {
	user, err := c.users.GetByTelegramChat(ctx, chatID)
	if err == nil {
		return user, true
	}

	if service.KindOf(err) == service.KindNotFound {
		c.sendMessage(ctx, chatID, "❌ This chat is not linked yet. Use /start <token> first.")
		return nil, false
	}
	c.logger.Error("Failed to get user by chat", zap.Int64("chat_id", chatID), zap.Error(err))
	c.sendMessage(ctx, chatID, "❌ Something went wrong. Please try again later.")
	return nil, false
}

// formatUpcoming lists sessions that have not ended, skipping cancelled ones.
func formatUpcoming(events []model.CalendarEvent, now time.Time) string {
	var b strings.Builder
	listed := 0
	for _, e := range events {
		if !e.End.After(now) || e.ExtendedProps["status"] == model.BookingStatusCancelled {
			continue
		}
		if listed == maxListedBookings {
			b.WriteString("…\n")
			break
		}
		listed++

		fmt.Fprintf(&b, "📅 %s · %s", e.Start.UTC().Format("2006-01-02 15:04 MST"), e.Title)
		for _, key := range []string{"tutor", "student"} {
			if name, ok := e.ExtendedProps[key].(string); ok && name != "" {
				fmt.Fprintf(&b, " · with %s", name)
			}
		}
		b.WriteString("\n")
	}

	if listed == 0 {
		return "📭 No upcoming sessions."
	}
	return "🗓 Upcoming sessions:\n\n" + b.String()
}
