package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/hanzibot/internal/activity"
	"github.com/example/hanzibot/internal/scheduler"
	"github.com/example/hanzibot/internal/selection"
	"github.com/example/hanzibot/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Activities is the study surface the bot drives
type Activities interface {
	Today() time.Time
	Due(ctx context.Context, cardType models.TaskType) ([]selection.Scored, error)
	HardMode(ctx context.Context, taskType models.TaskType) ([]string, error)
	Progress(ctx context.Context) (*activity.Progress, error)
	MonthlyHistory(ctx context.Context) ([]models.MonthlyStats, error)
	RecordResults(ctx context.Context, taskType models.TaskType, scores map[string]int, date time.Time) ([]models.ReviewEvent, error)
	CompleteSheet(ctx context.Context, sheet *models.Sheet, scores map[string]int, date time.Time) ([]models.ReviewEvent, error)
	ReadExam(ctx context.Context, scope selection.Scope) (*models.Sheet, error)
	WriteExam(ctx context.Context, scope selection.Scope) (*models.Sheet, error)
	ReviewExam(ctx context.Context, cardType models.TaskType) (*models.Sheet, error)
	ReviewSheet(ctx context.Context, n int, daysFilter *int) (*models.Sheet, error)
	FailedSheet(ctx context.Context, n int, threshold, recencyDays *int) (*models.Sheet, error)
	RecoverySheet(ctx context.Context, taskType models.TaskType, n int) (*models.Sheet, error)
}

// SheetStore looks up generated sheets
type SheetStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Sheet, error)
}

// sender is the part of the Telegram API the bot sends through
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot represents the Telegram bot application
type Bot struct {
	api        *tgbotapi.BotAPI
	sender     sender
	activities Activities
	sheets     SheetStore
	config     *BotConfig
	logger     zerolog.Logger
}

var _ scheduler.Notifier = (*Bot)(nil)

// New creates a new bot instance and authorizes it with Telegram
func New(token string, activities Activities, sheets SheetStore, config *BotConfig, logger zerolog.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %v", err)
	}

	b := newBot(api, activities, sheets, config, logger)
	b.api = api
	b.logger.Info().Str("account", api.Self.UserName).Msg("Authorized")
	return b, nil
}

func newBot(s sender, activities Activities, sheets SheetStore, config *BotConfig, logger zerolog.Logger) *Bot {
	if config == nil {
		config = DefaultConfig()
	}
	return &Bot{
		sender:     s,
		activities: activities,
		sheets:     sheets,
		config:     config,
		logger:     logger.With().Str("component", "bot").Logger(),
	}
}

// Start receives updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return fmt.Errorf("bot is not connected")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Stop gracefully stops receiving updates
func (b *Bot) Stop() {
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
	b.logger.Info().Msg("Bot stopped")
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(ctx context.Context, r scheduler.Reminder) error {
	if b.config.ChatID == 0 {
		return fmt.Errorf("no chat configured for reminders")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d cards are due for review.\n", r.Total())
	if len(r.Read) > 0 {
		fmt.Fprintf(&sb, "Read (%d): %s\n", len(r.Read), b.listScored(r.Read))
	}
	if len(r.Write) > 0 {
		fmt.Fprintf(&sb, "Write (%d): %s\n", len(r.Write), b.listScored(r.Write))
	}

	msg := tgbotapi.NewMessage(b.config.ChatID, sb.String())
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	if _, err := b.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	return nil
}

// allowed reports whether the chat may use the bot
func (b *Bot) allowed(chatID int64) bool {
	return b.config.ChatID == 0 || b.config.ChatID == chatID
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil:
		if !b.allowed(update.Message.Chat.ID) {
			b.logger.Warn().Int64("chat", update.Message.Chat.ID).Msg("Ignoring message from unknown chat")
			return
		}
		if update.Message.IsCommand() {
			err = b.HandleCommand(ctx, update.Message)
		} else {
			err = b.reply(update.Message.Chat.ID, "I don't understand. Use /help to see the commands.")
		}
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message == nil || !b.allowed(update.CallbackQuery.Message.Chat.ID) {
			return
		}
		err = b.HandleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		b.logger.Error().Err(err).Msg("Update handling failed")
	}
}

// MainMenuButtons returns the inline menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "Due (read)", CallbackData: callbackDueRead},
			{Text: "Due (write)", CallbackData: callbackDueWrite},
		},
		{
			{Text: "Stats", CallbackData: callbackStats},
			{Text: "Hard mode", CallbackData: callbackHard},
		},
	}
}

// reply sends a plain text message
func (b *Bot) reply(chatID int64, text string) error {
	_, err := b.sender.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// listScored joins characters, truncated to MaxListed
func (b *Bot) listScored(cards []selection.Scored) string {
	chars := make([]string, len(cards))
	for i, c := range cards {
		chars[i] = c.Character
	}
	return b.list(chars)
}

func (b *Bot) list(chars []string) string {
	if len(chars) > b.config.MaxListed {
		return strings.Join(chars[:b.config.MaxListed], " ") + fmt.Sprintf(" … (+%d)", len(chars)-b.config.MaxListed)
	}
	return strings.Join(chars, " ")
}
