package events

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageSender is the subset of *bot.Bot used for notifications.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// TelegramNotifier отправляет уведомления участникам бронирования.
// Users without a linked chat are skipped silently.
type TelegramNotifier struct {
	sender MessageSender
	users  UserLookup
	logger *zap.Logger
}

func NewTelegramNotifier(sender MessageSender, users UserLookup, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, users: users, logger: logger}
}

// NewTelegramBot creates a send-only bot client without calling getMe.
func NewTelegramBot(token string) (*bot.Bot, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return b, nil
}

// Availability changes are not pushed to chats.
func (n *TelegramNotifier) PublishAvailabilityCreated(context.Context, AvailabilityCreatedEvent) error {
	return nil
}

func (n *TelegramNotifier) PublishBookingCreated(ctx context.Context, event BookingEvent) error {
	text := fmt.Sprintf(
		"📚 New booking request\n\nSubject: %s\nTime: %s\nDuration: %d min",
		event.Subject,
		event.BookingTime.Format("2006-01-02 15:04 MST"),
		event.Duration,
	)
	return n.notify(ctx, event.TutorID, text)
}

func (n *TelegramNotifier) PublishBookingUpdated(ctx context.Context, event BookingEvent) error {
	if event.PreviousStatus == event.Status {
		return nil
	}

	text := fmt.Sprintf(
		"🔔 Booking %s\n\nSubject: %s\nTime: %s",
		event.Status,
		event.Subject,
		event.BookingTime.Format("2006-01-02 15:04 MST"),
	)

	recipient := event.StudentID
	if event.Status == model.BookingStatusCancelled {
		recipient = event.TutorID
	}
	return n.notify(ctx, recipient, text)
}

func (n *TelegramNotifier) notify(ctx context.Context, userID uuid.UUID, text string) error {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user for notification: %w", err)
	}
	if user == nil || user.TelegramChatID == nil {
		return nil
	}

	_, err = n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramChatID,
		Text:   text,
	})
	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("user_id", userID.String()),
			zap.Int64("chat_id", *user.TelegramChatID),
			zap.Error(err))
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
