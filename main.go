package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/hanzibot/internal/activity"
	"github.com/example/hanzibot/internal/bot"
	"github.com/example/hanzibot/internal/cards"
	"github.com/example/hanzibot/internal/config"
	"github.com/example/hanzibot/internal/database"
	"github.com/example/hanzibot/internal/excel"
	"github.com/example/hanzibot/internal/logger"
	"github.com/example/hanzibot/internal/scheduler"
	sr "github.com/example/hanzibot/internal/spaced_repetition"
	"github.com/example/hanzibot/pkg/models"
)

var envFile string

// app holds the wired dependencies of one command run
type app struct {
	cfg    config.Config
	log    zerolog.Logger
	store  *database.Store
	cache  *cards.Cache
	module *activity.Module
}

func openApp() (*app, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	read, err := sr.NewScheduler(sr.Config{DesiredRetention: cfg.ReadRetention})
	if err != nil {
		return nil, err
	}
	write, err := sr.NewScheduler(sr.Config{DesiredRetention: cfg.WriteRetention})
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.DBType, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	store := database.NewStore(db)

	cache := cards.NewCache(&cards.Builder{Read: read, Write: write}, store.ListEvents)
	module := activity.NewModule(store, store, cache,
		activity.WithClock(func() time.Time { return time.Now().In(cfg.Timezone) }),
		activity.WithLogger(log),
	)

	return &app{cfg: cfg, log: log, store: store, cache: cache, module: module}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Error().Err(err).Msg("Failed to close database")
	}
}

// withApp runs fn with a wired app and closes it afterwards
func withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), a, args)
	}
}

var rootCmd = &cobra.Command{
	Use:          "hanzibot",
	Short:        "Chinese character study scheduler",
	Long:         `Schedules reading and writing reviews of Chinese characters with an FSRS memory model.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the reminder scheduler",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Warm the card cache so the first request does not replay the log
		if _, err := a.cache.Get(ctx); err != nil {
			return err
		}

		var b *bot.Bot
		if a.cfg.TelegramToken != "" {
			cfg := bot.DefaultConfig()
			cfg.ChatID = a.cfg.TelegramChatID
			var err error
			if b, err = bot.New(a.cfg.TelegramToken, a.module, a.store, cfg, a.log); err != nil {
				return err
			}
		} else {
			a.log.Warn().Msg("TELEGRAM_BOT_TOKEN is not set, running without the bot")
		}

		if a.cfg.EnableScheduler {
			var notifier scheduler.Notifier
			if b != nil && a.cfg.TelegramChatID != 0 {
				notifier = b
			}
			s := scheduler.New(a.cache, a.module, notifier, a.cfg.ReminderTime, a.cfg.Timezone, a.log)
			if err := s.Start(); err != nil {
				return err
			}
			defer s.Stop()
		}

		g, ctx := errgroup.WithContext(ctx)
		if b != nil {
			g.Go(func() error { return b.Start(ctx) })
		}
		g.Go(func() error {
			<-ctx.Done()
			return nil
		})

		a.log.Info().Msg("Started. Press Ctrl+C to stop.")
		err := g.Wait()
		if b != nil {
			b.Stop()
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		a.log.Info().Msg("Stopped")
		return nil
	}),
}

var importCmd = &cobra.Command{
	Use:   "import <lessons|events> <file>",
	Short: "Import lessons or review events from an xlsx or csv file",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		cfg := excel.DefaultImportConfig()
		cfg.FilePath = args[1]
		cfg.SheetName = importSheet

		var result *excel.ImportResult
		var err error
		switch args[0] {
		case "lessons":
			result, err = excel.ImportLessons(ctx, a.store, cfg)
		case "events":
			result, err = excel.ImportEvents(ctx, a.store, cfg)
		default:
			return fmt.Errorf("unknown import kind %q", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("Processed %d rows: %d created, %d updated, %d skipped, %d books created\n",
			result.TotalProcessed, result.Created, result.Updated, result.Skipped, result.BooksCreated)
		for _, e := range result.Errors {
			fmt.Println("  " + e)
		}
		return nil
	}),
}

var importSheet string

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export all review events to an xlsx file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		events, err := a.store.ListEvents(ctx)
		if err != nil {
			return err
		}
		if err := excel.ExportEvents(args[0], events); err != nil {
			return err
		}
		fmt.Printf("Exported %d events to %s\n", len(events), args[0])
		return nil
	}),
}

var dueCmd = &cobra.Command{
	Use:   "due [read|write]",
	Short: "List due cards, least retained first",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		types := models.CardTypes
		if len(args) == 1 {
			types = []models.TaskType{models.TaskType(args[0])}
		}
		for _, t := range types {
			due, err := a.module.Due(ctx, t)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d due\n", t, len(due))
			for _, c := range due {
				fmt.Printf("  %s  %.3f\n", c.Character, c.Retrievability)
			}
		}
		return nil
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-lesson progress",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		p, err := a.module.Progress(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Characters: %d\n", len(p.Characters))
		printBuckets("Read", p.Overall.Read)
		printBuckets("Write", p.Overall.Write)
		for _, lp := range p.Lessons {
			learned := " "
			if lp.Lesson.IsLearned {
				learned = "*"
			}
			fmt.Printf("%s book %d lesson %d: read %d/%d, write %d/%d mastered\n",
				learned, lp.Lesson.BookID, lp.Lesson.LessonNum,
				lp.Aggregate.Read.Mastered, lp.Aggregate.Read.Total,
				lp.Aggregate.Write.Mastered, lp.Aggregate.Write.Total)
		}
		return nil
	}),
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show monthly progress, newest first",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		months, err := a.module.MonthlyHistory(ctx)
		if err != nil {
			return err
		}
		for _, m := range months {
			fmt.Printf("%s: %d reviews, %d studies, %d characters\n",
				m.Month, m.TotalReviews, m.TotalStudies, m.CumulativeUniqueChars)
			printBuckets("  Read", m.Read)
			printBuckets("  Write", m.Write)
		}
		return nil
	}),
}

var hardCmd = &cobra.Command{
	Use:   "hard <read|write>",
	Short: "List characters in hard mode",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		chars, err := a.module.HardMode(ctx, models.TaskType(args[0]))
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(chars, " "))
		return nil
	}),
}

var recordDate string

var recordCmd = &cobra.Command{
	Use:   "record <type> <char=score>...",
	Short: "Record exam or study results",
	Args:  cobra.MinimumNArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		taskType, err := models.ParseTaskType(args[0])
		if err != nil {
			return err
		}
		scores, err := parseScores(args[1:])
		if err != nil {
			return err
		}

		date := a.module.Today()
		if recordDate != "" {
			if date, err = models.ParseDate(recordDate); err != nil {
				return err
			}
		}

		saved, err := a.module.RecordResults(ctx, taskType, scores, date)
		if err != nil {
			return err
		}
		fmt.Printf("Recorded %d events\n", len(saved))
		return nil
	}),
}

func parseScores(args []string) (map[string]int, error) {
	scores := make(map[string]int, len(args))
	for _, arg := range args {
		char, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected char=score, got %q", arg)
		}
		score, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid score %q for %s", value, char)
		}
		scores[char] = score
	}
	return scores, nil
}

func printBuckets(label string, b models.Buckets) {
	fmt.Printf("%s: %d mastered, %d learning, %d lapsing, %d hard, %d total\n",
		label, b.Mastered, b.Learning, b.Lapsing, b.Hard, b.Total)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show exam settings",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		types := []models.SheetType{models.SheetReadExam, models.SheetWriteExam, models.SheetReadReview, models.SheetWriteReview}
		for _, t := range types {
			s, err := a.store.GetExamSettings(ctx, t)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d characters, hard mode included: %t\n", t, s.NumChars, s.IncludeHardMode)
		}
		return nil
	}),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (default .env)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "sheet name for xlsx files (default first sheet)")
	recordCmd.Flags().StringVar(&recordDate, "date", "", "study date YYYY-MM-DD (default today)")

	rootCmd.AddCommand(serveCmd, importCmd, exportCmd, dueCmd, statsCmd, historyCmd, hardCmd, recordCmd, settingsCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
