package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/example/hanzibot/internal/activity"
	"github.com/example/hanzibot/internal/selection"
	"github.com/example/hanzibot/pkg/models"
)

// Constants for callback data
const (
	callbackDueRead  = "due_read"
	callbackDueWrite = "due_write"
	callbackStats    = "stats"
	callbackHard     = "hard"
)

const helpText = `Hanzi study bot

/due [read|write] - characters due for review
/stats - progress by lesson
/hard [read|write] - characters in hard mode
/history - monthly progress
/record <read|write|readstudy|writestudy> 你=8 好=3 [YYYY-MM-DD] - record results
/sheet <read|write|review_read|review_write|review|failed|recovery_read|recovery_write> [n] - generate a sheet
/done <sheet id> [你=8 ...] [YYYY-MM-DD] - record a sheet's results`

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}
	chatID := message.Chat.ID
	args := strings.Fields(message.CommandArguments())

	var text string
	var err error
	switch message.Command() {
	case "start", "help":
		msg := tgbotapi.NewMessage(chatID, helpText)
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		_, err = b.sender.Send(msg)
		return err
	case "due":
		text, err = b.dueText(ctx, args)
	case "stats":
		text, err = b.statsText(ctx)
	case "hard":
		text, err = b.hardText(ctx, args)
	case "history":
		text, err = b.historyText(ctx)
	case "record":
		text, err = b.record(ctx, args)
	case "sheet":
		text, err = b.sheet(ctx, args)
	case "done":
		text, err = b.done(ctx, args)
	default:
		text = "Unknown command. Use /help to see the commands."
	}

	if err != nil {
		b.logger.Warn().Err(err).Str("command", message.Command()).Msg("Command failed")
		text = "Error: " + err.Error()
	}
	return b.reply(chatID, text)
}

// HandleCallback handles inline menu buttons
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if _, err := b.sender.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Warn().Err(err).Msg("Callback acknowledge failed")
	}

	var text string
	var err error
	switch callback.Data {
	case callbackDueRead:
		text, err = b.dueText(ctx, []string{string(models.TaskRead)})
	case callbackDueWrite:
		text, err = b.dueText(ctx, []string{string(models.TaskWrite)})
	case callbackStats:
		text, err = b.statsText(ctx)
	case callbackHard:
		text, err = b.hardText(ctx, nil)
	default:
		text = "Unknown action."
	}
	if err != nil {
		text = "Error: " + err.Error()
	}
	return b.reply(callback.Message.Chat.ID, text)
}

// cardTypes parses an optional read/write argument; none means both
func cardTypes(args []string) ([]models.TaskType, error) {
	if len(args) == 0 {
		return models.CardTypes, nil
	}
	t := models.TaskType(strings.ToLower(args[0]))
	if !t.IsExam() {
		return nil, fmt.Errorf("%w: %q", selection.ErrInvalidCardType, args[0])
	}
	return []models.TaskType{t}, nil
}

func (b *Bot) dueText(ctx context.Context, args []string) (string, error) {
	types, err := cardTypes(args)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, t := range types {
		due, err := b.activities.Due(ctx, t)
		if err != nil {
			return "", err
		}
		if len(due) == 0 {
			fmt.Fprintf(&sb, "No %s cards due.\n", t)
			continue
		}
		fmt.Fprintf(&sb, "Due %s (%d):\n", t, len(due))
		for i, c := range due {
			if i == b.config.MaxListed {
				fmt.Fprintf(&sb, "… and %d more\n", len(due)-i)
				break
			}
			fmt.Fprintf(&sb, "%s %.0f%%\n", c.Character, c.Retrievability*100)
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func formatBuckets(label string, bk models.Buckets) string {
	return fmt.Sprintf("%s: %d mastered, %d learning, %d lapsing, %d hard of %d",
		label, bk.Mastered, bk.Learning, bk.Lapsing, bk.Hard, bk.Total)
}

func (b *Bot) statsText(ctx context.Context) (string, error) {
	p, err := b.activities.Progress(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Characters: %d\n", len(p.Characters))
	sb.WriteString(formatBuckets("Read", p.Overall.Read) + "\n")
	sb.WriteString(formatBuckets("Write", p.Overall.Write) + "\n")

	for _, lp := range p.Lessons {
		if !lp.Lesson.IsLearned {
			continue
		}
		fmt.Fprintf(&sb, "\nLesson %d (book %d): read %d/%d, write %d/%d mastered",
			lp.Lesson.LessonNum, lp.Lesson.BookID,
			lp.Aggregate.Read.Mastered, lp.Aggregate.Read.Total,
			lp.Aggregate.Write.Mastered, lp.Aggregate.Write.Total)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (b *Bot) hardText(ctx context.Context, args []string) (string, error) {
	types, err := cardTypes(args)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, t := range types {
		chars, err := b.activities.HardMode(ctx, t)
		if err != nil {
			return "", err
		}
		if len(chars) == 0 {
			lines = append(lines, fmt.Sprintf("No %s characters in hard mode.", t))
			continue
		}
		lines = append(lines, fmt.Sprintf("Hard %s (%d): %s", t, len(chars), b.list(chars)))
	}
	return strings.Join(lines, "\n"), nil
}

func (b *Bot) historyText(ctx context.Context) (string, error) {
	months, err := b.activities.MonthlyHistory(ctx)
	if err != nil {
		return "", err
	}
	if len(months) == 0 {
		return "No history yet.", nil
	}
	if len(months) > b.config.HistoryMonths {
		months = months[:b.config.HistoryMonths]
	}

	var sb strings.Builder
	for _, m := range months {
		fmt.Fprintf(&sb, "%s: %d reviews, %d studies, %d characters\n  %s\n  %s\n",
			m.Month, m.TotalReviews, m.TotalStudies, m.CumulativeUniqueChars,
			formatBuckets("Read", m.Read), formatBuckets("Write", m.Write))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// parseResults splits arguments into character scores and an optional date.
func parseResults(args []string, today time.Time) (map[string]int, time.Time, error) {
	scores := make(map[string]int)
	date := today
	for _, arg := range args {
		char, value, ok := strings.Cut(arg, "=")
		if !ok {
			char, value, ok = strings.Cut(arg, ":")
		}
		if !ok {
			d, err := models.ParseDate(arg)
			if err != nil {
				return nil, time.Time{}, fmt.Errorf("expected 字=score or YYYY-MM-DD, got %q", arg)
			}
			date = d
			continue
		}
		score, err := strconv.Atoi(value)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("invalid score %q for %s", value, char)
		}
		scores[char] = score
	}
	return scores, date, nil
}

func (b *Bot) record(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: /record <type> 你=8 [YYYY-MM-DD]")
	}
	taskType, err := models.ParseTaskType(strings.ToLower(args[0]))
	if err != nil {
		return "", err
	}
	scores, date, err := parseResults(args[1:], b.activities.Today())
	if err != nil {
		return "", err
	}
	if len(scores) == 0 {
		return "", fmt.Errorf("no scores given")
	}

	saved, err := b.activities.RecordResults(ctx, taskType, scores, date)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Recorded %d %s results for %s.", len(saved), taskType, date.Format(models.DateLayout)), nil
}

func (b *Bot) sheet(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: /sheet <kind> [n]")
	}
	n := b.config.DefaultSheetSize
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 1 {
			return "", fmt.Errorf("invalid count %q", args[1])
		}
		n = v
	}

	var sheet *models.Sheet
	var err error
	switch strings.ToLower(args[0]) {
	case "read":
		sheet, err = b.activities.ReadExam(ctx, selection.Scope{})
	case "write":
		sheet, err = b.activities.WriteExam(ctx, selection.Scope{})
	case "review_read":
		sheet, err = b.activities.ReviewExam(ctx, models.TaskRead)
	case "review_write":
		sheet, err = b.activities.ReviewExam(ctx, models.TaskWrite)
	case "review":
		sheet, err = b.activities.ReviewSheet(ctx, n, nil)
	case "failed":
		sheet, err = b.activities.FailedSheet(ctx, n, nil, nil)
	case "recovery_read":
		sheet, err = b.activities.RecoverySheet(ctx, models.TaskRead, n)
	case "recovery_write":
		sheet, err = b.activities.RecoverySheet(ctx, models.TaskWrite, n)
	default:
		return "", fmt.Errorf("unknown sheet kind %q", args[0])
	}
	if errors.Is(err, activity.ErrEmptySheet) {
		return "Nothing to put on this sheet.", nil
	}
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if sheet.Title != "" {
		sb.WriteString(sheet.Title + "\n")
	}
	if sheet.HeaderText != "" {
		sb.WriteString(sheet.HeaderText + "\n")
	}
	fmt.Fprintf(&sb, "%s\nID: %s", strings.Join(sheet.Characters, " "), sheet.ID)
	return sb.String(), nil
}

func (b *Bot) done(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: /done <sheet id> [你=8 ...] [YYYY-MM-DD]")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid sheet id %q", args[0])
	}
	sheet, err := b.sheets.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if sheet.Done {
		return "This sheet is already recorded.", nil
	}

	scores, date, err := parseResults(args[1:], b.activities.Today())
	if err != nil {
		return "", err
	}
	saved, err := b.activities.CompleteSheet(ctx, sheet, scores, date)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Sheet done: %d results recorded.", len(saved)), nil
}
