package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/lingua/internal/excel"
	"github.com/example/lingua/internal/logger"
	"github.com/example/lingua/internal/review"
	sr "github.com/example/lingua/internal/spaced_repetition"
	"github.com/example/lingua/pkg/models"
)

// sender is the part of the Telegram API the bot talks to
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Reviewer runs study sessions
type Reviewer interface {
	AddTopic(ctx context.Context, userID, topicID int64) (int, error)
	Submit(ctx context.Context, userID, wordID int64, quality int) (sr.State, error)
	Queue(ctx context.Context, userID int64, limit int) ([]models.Word, error)
	Dashboard(ctx context.Context, userID int64) (review.Dashboard, error)
}

// UserStore keeps Telegram users and their reminder settings
type UserStore interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateNotificationSettings(ctx context.Context, userID int64, enabled bool, hour int) error
}

// TopicStore lists topics
type TopicStore interface {
	GetAll(ctx context.Context) ([]models.Topic, error)
	CountWords(ctx context.Context) (map[int64]int, error)
}

// WordStore looks words up
type WordStore interface {
	GetByID(ctx context.Context, id int64) (*models.Word, error)
}

// Importer loads vocabulary files sent by admins
type Importer interface {
	Import(ctx context.Context, r io.Reader, format excel.Format, cfg excel.ImportConfig) (*excel.ImportResult, error)
}

// ExampleSource produces usage examples shown on the back of a card
type ExampleSource interface {
	Example(ctx context.Context, word models.Word) (string, error)
}

// Deps are the services the bot presents. Examples may be nil.
type Deps struct {
	Reviewer Reviewer
	Users    UserStore
	Topics   TopicStore
	Words    WordStore
	Importer Importer
	Examples ExampleSource
}

// Options tune bot behaviour
type Options struct {
	AdminUserIDs            map[int64]bool
	WordsPerSession         int
	DefaultNotificationHour int
}

// Bot represents the Telegram bot application
type Bot struct {
	token string
	api   sender
	deps  Deps
	opts  Options
	log   *logger.Logger

	// fetch downloads uploaded documents
	fetch func(ctx context.Context, url string) (io.ReadCloser, error)

	mu             sync.Mutex
	awaitingImport map[int64]bool
}

// New creates a new bot instance
func New(token string, deps Deps, opts Options, log *logger.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if opts.AdminUserIDs == nil {
		opts.AdminUserIDs = make(map[int64]bool)
	}
	if opts.DefaultNotificationHour == 0 {
		opts.DefaultNotificationHour = 9
	}
	return &Bot{
		token:          token,
		deps:           deps,
		opts:           opts,
		log:            log,
		fetch:          httpFetch,
		awaitingImport: make(map[int64]bool),
	}, nil
}

// Connect authorizes the bot against the Telegram API
func (b *Bot) Connect() error {
	api, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	b.api = api
	b.log.Info("Authorized on account", "username", api.Self.UserName)
	return nil
}

// Run receives updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	api, ok := b.api.(*tgbotapi.BotAPI)
	if !ok {
		if err := b.Connect(); err != nil {
			return err
		}
		api = b.api.(*tgbotapi.BotAPI)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := api.GetUpdatesChan(updateConfig)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			b.log.Info("Bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Document != nil:
		err = b.handleDocument(ctx, update.Message)
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Chat != nil:
		err = b.sendText(update.Message.Chat.ID, "Не понимаю 🤔 Используйте /help, чтобы увидеть список команд.")
	}
	if err != nil {
		b.log.Error("Failed to handle update", "update_id", update.UpdateID, "error", err)
	}
}

// SendReminder tells a user that words are waiting for review
func (b *Bot) SendReminder(userID int64, due int) error {
	// private chats share the user's ID
	msg := tgbotapi.NewMessage(userID, fmt.Sprintf("⏰ У вас %d %s для повторения!", due, pluralWords(due)))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "▶️ Начать повторение", CallbackData: callbackReview}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.opts.AdminUserIDs[userID]
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) error {
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func httpFetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}
