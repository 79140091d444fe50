package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/example/lingua/internal/config"
	"github.com/example/lingua/internal/database"
	"github.com/example/lingua/internal/excel"
	"github.com/example/lingua/internal/logger"
	"github.com/example/lingua/internal/review"
	"github.com/example/lingua/pkg/models"
)

var rootCmd = &cobra.Command{
	Use:           "lingua",
	Short:         "Spaced-repetition vocabulary trainer",
	Long:          "Lingua schedules vocabulary reviews with SM-2 and serves them through a Telegram bot or the command line.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file (missing file is ignored)")
	rootCmd.PersistentFlags().String("db-type", "", "Database type: sqlite or postgres (overrides DB_TYPE)")
	rootCmd.PersistentFlags().String("db", "", "SQLite path or Postgres DSN (overrides DB_PATH / DATABASE_URL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(statsCmd)
}

// app holds the wired components shared by all commands
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *sqlx.DB
	users    *database.UserRepository
	topics   *database.TopicRepository
	words    *database.WordRepository
	progress *database.UserProgressRepository
	streaks  *database.StreakRepository
	review   *review.Service
	importer *excel.Importer
}

// loadConfig reads the environment and applies persistent flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, []string, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, warnings, err := config.Load(envFile)
	if err != nil {
		return nil, warnings, err
	}

	dbType, _ := cmd.Flags().GetString("db-type")
	dsn, _ := cmd.Flags().GetString("db")
	cfg.OverrideDatabase(dbType, dsn)
	return cfg, warnings, cfg.Validate()
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, warnings, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	for _, w := range warnings {
		log.Warn("Config warning", "detail", w)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Debug("Database connected", "type", cfg.Database.Type, "dsn", cfg.Database.DSN())

	a := &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		users:    database.NewUserRepository(db),
		topics:   database.NewTopicRepository(db),
		words:    database.NewWordRepository(db),
		progress: database.NewUserProgressRepository(db),
		streaks:  database.NewStreakRepository(db),
	}
	a.review = review.NewService(a.progress, a.topics, a.streaks, log.With("component", "review"))
	a.importer = excel.NewImporter(a.topics, a.words, log.With("component", "import"))
	return a, nil
}

func (a *app) Close() {
	a.db.Close()
	a.log.Sync()
}

// ensureUser registers a learner referenced from the command line
func (a *app) ensureUser(ctx context.Context, userID int64) error {
	_, err := a.users.GetByID(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return err
	}
	return a.users.Upsert(ctx, &models.User{
		ID:                  userID,
		NotificationEnabled: true,
		NotificationHour:    9,
		WordsPerSession:     a.cfg.WordsPerSession,
	})
}

func requireUser(cmd *cobra.Command) (int64, error) {
	id, _ := cmd.Flags().GetInt64("user")
	if id == 0 {
		return 0, errors.New("--user is required")
	}
	return id, nil
}
