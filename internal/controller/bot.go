package controller

import (
	"context"

	"github.com/Freeeeeet/tutorhub/internal/auth"
	"github.com/Freeeeeet/tutorhub/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Sender отправляет сообщения в чат. *bot.Bot satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// BotController serves the companion Telegram bot: chat linking and a
// read-only view of the linked account's bookings.
type BotController struct {
	bot      *bot.Bot
	sender   Sender
	users    *service.UserService
	bookings *service.BookingService
	verifier *auth.Verifier
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	users *service.UserService,
	bookings *service.BookingService,
	verifier *auth.Verifier,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:      botInstance,
		sender:   botInstance,
		users:    users,
		bookings: bookings,
		verifier: verifier,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// /start carries the link token as deep-link payload
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mybookings", bot.MatchTypeExact, c.HandleMyBookings)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🔗 Link this chat to your account"},
		{Command: "mybookings", Description: "📅 Upcoming sessions"},
		{Command: "help", Description: "❓ Command help"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает long polling и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting telegram bot")
	c.bot.Start(ctx)
}

// sendMessage отправляет сообщение и логирует если не удалось
func (c *BotController) sendMessage(ctx context.Context, chatID int64, text string) {
	_, err := c.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		c.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
