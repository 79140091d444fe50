package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/lingua/internal/database"
	"github.com/example/lingua/internal/excel"
	"github.com/example/lingua/internal/review"
	sr "github.com/example/lingua/internal/spaced_repetition"
	"github.com/example/lingua/pkg/models"
)

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	var err error
	switch message.Command() {
	case "start":
		err = b.handleStart(ctx, message)
	case "help":
		err = b.handleHelp(message)
	case "topics":
		err = b.showTopics(ctx, message.Chat.ID)
	case "review":
		err = b.showNextCard(ctx, message.Chat.ID, message.From.ID)
	case "stats":
		err = b.showStats(ctx, message.Chat.ID, message.From.ID)
	case "notify":
		err = b.handleNotifyCommand(ctx, message)
	case "time":
		err = b.handleTimeCommand(ctx, message)
	case "import":
		err = b.handleImportCommand(message)
	default:
		err = b.handleUnknownCommand(message)
	}
	return err
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, message.From); err != nil {
		return err
	}

	text := "👋 Добро пожаловать!\n\n" +
		"Я помогу выучить английские слова методом интервального повторения.\n\n" +
		"🔹 Как это работает:\n" +
		"1. Выберите тему в /topics\n" +
		"2. Повторяйте слова в /review и оценивайте, насколько легко их вспомнить\n" +
		"3. Я напомню, когда придёт время повторить\n" +
		"4. Следите за прогрессом в /stats"

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) error {
	text := "📖 Команды\n\n" +
		"/topics - Выбрать тему для изучения\n" +
		"/review - Повторить слова\n" +
		"/stats - Статистика\n" +
		"/notify on|off - Включить/выключить напоминания\n" +
		"/time <час> - Час напоминаний (0-23, UTC)"
	if b.isAdmin(message.From.ID) {
		text += "\n/import - Загрузить слова из .xlsx или .csv"
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleUnknownCommand(message *tgbotapi.Message) error {
	return b.sendText(message.Chat.ID, "Неизвестная команда. Используйте /help.")
}

// ensureUser registers the Telegram user on first contact
func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	user := &models.User{
		ID:                  from.ID,
		Username:            from.UserName,
		FirstName:           from.FirstName,
		LastName:            from.LastName,
		IsAdmin:             b.isAdmin(from.ID),
		NotificationEnabled: true,
		NotificationHour:    b.opts.DefaultNotificationHour,
		WordsPerSession:     b.opts.WordsPerSession,
	}
	if err := b.deps.Users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return b.deps.Users.GetByID(ctx, from.ID)
}

func (b *Bot) showTopics(ctx context.Context, chatID int64) error {
	topics, err := b.deps.Topics.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(topics) == 0 {
		return b.sendText(chatID, "Пока нет ни одной темы 😔")
	}
	counts, err := b.deps.Topics.CountWords(ctx)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, "📚 Выберите тему, чтобы добавить её слова в изучение:")
	msg.ReplyMarkup = topicsKeyboard(topics, counts)
	return b.sendMessage(msg)
}

func (b *Bot) showNextCard(ctx context.Context, chatID, userID int64) error {
	words, err := b.deps.Reviewer.Queue(ctx, userID, 1)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		msg := tgbotapi.NewMessage(chatID, "🎉 На сегодня всё повторено! Добавьте новые слова в /topics.")
		msg.ReplyMarkup = createKeyboard([][]MenuButton{
			{{Text: "📚 Темы", CallbackData: callbackTopics}, {Text: "📊 Статистика", CallbackData: callbackStats}},
		})
		return b.sendMessage(msg)
	}

	text, keyboard := cardFront(words[0])
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return b.sendMessage(msg)
}

func (b *Bot) showStats(ctx context.Context, chatID, userID int64) error {
	d, err := b.deps.Reviewer.Dashboard(ctx, userID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, statsText(d))
	if d.DueToday > 0 {
		msg.ReplyMarkup = createKeyboard([][]MenuButton{
			{{Text: "▶️ Повторять слова", CallbackData: callbackReview}},
		})
	}
	return b.sendMessage(msg)
}

func (b *Bot) handleNotifyCommand(ctx context.Context, message *tgbotapi.Message) error {
	var enabled bool
	switch strings.ToLower(strings.TrimSpace(message.CommandArguments())) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return b.sendText(message.Chat.ID, "Пожалуйста, укажите on или off: /notify <on|off>")
	}

	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}
	if err := b.deps.Users.UpdateNotificationSettings(ctx, user.ID, enabled, user.NotificationHour); err != nil {
		return err
	}

	text := "✅ Напоминания включены"
	if !enabled {
		text = "🔕 Напоминания выключены"
	}
	return b.sendText(message.Chat.ID, text)
}

func (b *Bot) handleTimeCommand(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		return b.sendText(message.Chat.ID, "Пожалуйста, укажите час (0-23): /time <час>")
	}
	hour, err := strconv.Atoi(args)
	if err != nil || hour < 0 || hour > 23 {
		return b.sendText(message.Chat.ID, "Пожалуйста, укажите корректный час (0-23)")
	}

	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}
	if err := b.deps.Users.UpdateNotificationSettings(ctx, user.ID, user.NotificationEnabled, hour); err != nil {
		return err
	}
	return b.sendText(message.Chat.ID, fmt.Sprintf("✅ Время напоминаний установлено на %d:00 UTC", hour))
}

func (b *Bot) handleImportCommand(message *tgbotapi.Message) error {
	if !b.isAdmin(message.From.ID) {
		return b.sendText(message.Chat.ID, "⛔ Эта команда доступна только администраторам.")
	}

	b.mu.Lock()
	b.awaitingImport[message.Chat.ID] = true
	b.mu.Unlock()

	return b.sendText(message.Chat.ID,
		"📎 Отправьте файл .xlsx или .csv.\n"+
			"Колонки: слово, перевод, описание, тема, сложность (1-5), транскрипция. Первая строка - заголовок.")
}

func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	b.mu.Lock()
	awaiting := b.awaitingImport[message.Chat.ID]
	delete(b.awaitingImport, message.Chat.ID)
	b.mu.Unlock()

	if !b.isAdmin(message.From.ID) || (!awaiting && !strings.HasPrefix(message.Caption, "/import")) {
		return b.sendText(message.Chat.ID, "Чтобы загрузить слова, сначала отправьте /import.")
	}

	doc := message.Document
	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return fmt.Errorf("failed to get file URL: %w", err)
	}
	body, err := b.fetch(ctx, url)
	if err != nil {
		_ = b.sendText(message.Chat.ID, "❌ Не удалось скачать файл.")
		return fmt.Errorf("failed to download %s: %w", doc.FileName, err)
	}
	defer body.Close()

	res, err := b.deps.Importer.Import(ctx, body, excel.FormatFromName(doc.FileName), excel.DefaultImportConfig())
	if err != nil {
		b.log.Warn("Import failed", "user_id", message.From.ID, "file", doc.FileName, "error", err)
		return b.sendText(message.Chat.ID, "❌ Не удалось прочитать файл: "+err.Error())
	}

	b.log.Info("Words imported", "user_id", message.From.ID, "file", doc.FileName, "created", res.Created, "updated", res.Updated)
	return b.sendText(message.Chat.ID, importText(res))
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query.From == nil || query.Message == nil || query.Message.Chat == nil {
		return fmt.Errorf("invalid callback: required fields are missing")
	}
	chatID := query.Message.Chat.ID
	userID := query.From.ID

	cb, err := parseCallback(query.Data)
	if err != nil {
		b.answerCallback(query.ID, "")
		return err
	}

	switch cb.action {
	case callbackReview:
		b.answerCallback(query.ID, "")
		return b.showNextCard(ctx, chatID, userID)
	case callbackStats:
		b.answerCallback(query.ID, "")
		return b.showStats(ctx, chatID, userID)
	case callbackTopics:
		b.answerCallback(query.ID, "")
		return b.showTopics(ctx, chatID)
	case callbackLearn:
		return b.handleLearn(ctx, query, cb.id)
	case callbackReveal:
		return b.handleReveal(ctx, query, cb.id)
	case callbackGrade:
		return b.handleGrade(ctx, query, cb.id, cb.quality)
	}
	return nil
}

func (b *Bot) handleLearn(ctx context.Context, query *tgbotapi.CallbackQuery, topicID int64) error {
	if _, err := b.ensureUser(ctx, query.From); err != nil {
		return err
	}

	n, err := b.deps.Reviewer.AddTopic(ctx, query.From.ID, topicID)
	if errors.Is(err, database.ErrNotFound) {
		b.answerCallback(query.ID, "Тема не найдена")
		return nil
	}
	if err != nil {
		b.answerCallback(query.ID, "")
		return err
	}

	b.answerCallback(query.ID, "")
	msg := tgbotapi.NewMessage(query.Message.Chat.ID, fmt.Sprintf("✅ Добавлено %d %s в изучение.", n, pluralWords(n)))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "▶️ Начать повторение", CallbackData: callbackReview}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handleReveal(ctx context.Context, query *tgbotapi.CallbackQuery, wordID int64) error {
	word, err := b.deps.Words.GetByID(ctx, wordID)
	if err != nil {
		b.answerCallback(query.ID, "Слово не найдено")
		return err
	}

	b.answerCallback(query.ID, "")

	var example string
	if b.deps.Examples != nil {
		example, err = b.deps.Examples.Example(ctx, *word)
		if err != nil {
			b.log.Warn("Failed to generate example", "word_id", wordID, "error", err)
			example = ""
		}
	}

	text, keyboard := cardBack(*word, example)
	edit := tgbotapi.NewEditMessageTextAndMarkup(query.Message.Chat.ID, query.Message.MessageID, text, keyboard)
	return b.sendMessage(edit)
}

func (b *Bot) handleGrade(ctx context.Context, query *tgbotapi.CallbackQuery, wordID int64, quality int) error {
	state, err := b.deps.Reviewer.Submit(ctx, query.From.ID, wordID, quality)
	switch {
	case errors.Is(err, sr.ErrInvalidQuality):
		b.answerCallback(query.ID, "Неверная оценка")
		return nil
	case errors.Is(err, review.ErrWordNotLinked):
		b.answerCallback(query.ID, "Этого слова нет в вашем списке")
		return nil
	case err != nil:
		b.answerCallback(query.ID, "")
		return err
	}

	b.answerCallback(query.ID, "")

	// remove the grade buttons so the card cannot be graded twice
	text := query.Message.Text + "\n\n" + gradedText(sr.Quality(quality), state)
	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	if err := b.sendMessage(edit); err != nil {
		b.log.Warn("Failed to update card", "user_id", query.From.ID, "error", err)
	}

	return b.showNextCard(ctx, query.Message.Chat.ID, query.From.ID)
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Debug("Failed to answer callback", "callback_id", id, "error", err)
	}
}
