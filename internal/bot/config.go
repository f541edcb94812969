package bot

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Telegram chat allowed to use the bot and receiving reminders; 0 allows any chat
	ChatID int64
	// Number of characters on review and failed sheets when not given
	DefaultSheetSize int
	// Longest character list shown in one message
	MaxListed int
	// Months shown by /history
	HistoryMonths int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		DefaultSheetSize: 10,
		MaxListed:        30,
		HistoryMonths:    6,
	}
}
