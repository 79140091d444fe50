package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lingua/internal/config"
	"github.com/example/lingua/internal/database"
	"github.com/example/lingua/internal/excel"
	"github.com/example/lingua/internal/logger"
	"github.com/example/lingua/internal/review"
	sr "github.com/example/lingua/internal/spaced_repetition"
	"github.com/example/lingua/pkg/models"
)

const (
	adminID   int64 = 1
	studentID int64 = 2
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	fail     bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) GetFileDirectURL(fileID string) (string, error) {
	return "https://files.example/" + fileID, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.Chattable {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func (f *fakeSender) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msg, ok := f.last(t).(tgbotapi.MessageConfig)
	require.True(t, ok, "last sent item is %T", f.last(t))
	return msg
}

type harness struct {
	bot    *Bot
	api    *fakeSender
	topics *database.TopicRepository
	words  *database.WordRepository
	clock  time.Time
	files  map[string][]byte
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.Connect(config.Database{Type: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := &harness{
		api:    &fakeSender{},
		topics: database.NewTopicRepository(db),
		words:  database.NewWordRepository(db),
		clock:  time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC),
		files:  map[string][]byte{},
	}

	log := logger.Nop()
	svc := review.NewService(
		database.NewUserProgressRepository(db),
		h.topics,
		database.NewStreakRepository(db),
		log,
		review.WithClock(func() time.Time { return h.clock }),
	)

	b, err := New("test-token", Deps{
		Reviewer: svc,
		Users:    database.NewUserRepository(db),
		Topics:   h.topics,
		Words:    h.words,
		Importer: excel.NewImporter(h.topics, h.words, log),
	}, Options{AdminUserIDs: map[int64]bool{adminID: true}, WordsPerSession: 10}, log)
	require.NoError(t, err)

	b.api = h.api
	b.fetch = func(_ context.Context, url string) (io.ReadCloser, error) {
		data, ok := h.files[strings.TrimPrefix(url, "https://files.example/")]
		if !ok {
			return nil, errors.New("404")
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	h.bot = b
	return h
}

func command(userID int64, text string) tgbotapi.Update {
	cmd := strings.SplitN(text, " ", 2)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: userID, UserName: fmt.Sprintf("user%d", userID)},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func press(userID int64, data string, msgText string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-" + data,
		From: &tgbotapi.User{ID: userID},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 77,
			Chat:      &tgbotapi.Chat{ID: userID},
			Text:      msgText,
		},
	}}
}

func (h *harness) seedTopic(t *testing.T, name string, words ...string) models.Topic {
	t.Helper()
	ctx := context.Background()
	topic := models.Topic{Name: name}
	require.NoError(t, h.topics.Create(ctx, &topic))
	for _, w := range words {
		word := models.Word{Word: w, Translation: w + " (ru)", TopicID: topic.ID, Difficulty: 3}
		require.NoError(t, h.words.Create(ctx, &word))
	}
	return topic
}

func inlineData(t *testing.T, markup interface{}) []string {
	t.Helper()
	kb, ok := markup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "markup is %T", markup)
	var data []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			require.NotNil(t, btn.CallbackData)
			data = append(data, *btn.CallbackData)
		}
	}
	return data
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New("", Deps{}, Options{}, logger.Nop())
	assert.Error(t, err)
}

func TestStartRegistersUser(t *testing.T) {
	h := newHarness(t)
	h.bot.handleUpdate(context.Background(), command(studentID, "/start"))

	msg := h.api.lastMessage(t)
	assert.Contains(t, msg.Text, "Добро пожаловать")
	assert.Contains(t, inlineData(t, msg.ReplyMarkup), callbackReview)

	user, err := h.bot.deps.Users.GetByID(context.Background(), studentID)
	require.NoError(t, err)
	assert.True(t, user.NotificationEnabled)
	assert.Equal(t, 9, user.NotificationHour)
}

func TestTopicsListsLearnButtons(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.bot.handleUpdate(ctx, command(studentID, "/topics"))
	assert.Contains(t, h.api.lastMessage(t).Text, "нет ни одной темы")

	topic := h.seedTopic(t, "Weather", "rain", "snow")
	h.bot.handleUpdate(ctx, command(studentID, "/topics"))

	msg := h.api.lastMessage(t)
	assert.Equal(t, []string{learnData(topic.ID)}, inlineData(t, msg.ReplyMarkup))
	kb := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	assert.Equal(t, "📚 Weather (2)", kb.InlineKeyboard[0][0].Text)
}

func TestReviewFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	topic := h.seedTopic(t, "Animals", "cat")

	h.bot.handleUpdate(ctx, command(studentID, "/review"))
	assert.Contains(t, h.api.lastMessage(t).Text, "всё повторено")

	h.bot.handleUpdate(ctx, press(studentID, learnData(topic.ID), ""))
	assert.Contains(t, h.api.lastMessage(t).Text, "Добавлено 1 слово")

	h.bot.handleUpdate(ctx, command(studentID, "/review"))
	front := h.api.lastMessage(t)
	assert.Contains(t, front.Text, "cat")
	assert.NotContains(t, front.Text, "cat (ru)")
	data := inlineData(t, front.ReplyMarkup)
	require.Len(t, data, 1)

	cb, err := parseCallback(data[0])
	require.NoError(t, err)
	wordID := cb.id

	h.bot.handleUpdate(ctx, press(studentID, revealData(wordID), front.Text))
	edit, ok := h.api.last(t).(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Contains(t, edit.Text, "cat (ru)")
	assert.Equal(t, 77, edit.MessageID)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Len(t, inlineData(t, *edit.ReplyMarkup), 4)

	h.bot.handleUpdate(ctx, press(studentID, gradeData(wordID, sr.QualityGood), edit.Text))
	done := h.api.lastMessage(t)
	assert.Contains(t, done.Text, "всё повторено")

	d, err := h.bot.deps.Reviewer.Dashboard(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Total)
	assert.Equal(t, 1, d.DueSoon)
	assert.Equal(t, 1, d.TotalReviews)

	// a day later the word is back
	h.clock = h.clock.AddDate(0, 0, 1)
	h.bot.handleUpdate(ctx, press(studentID, callbackReview, ""))
	assert.Contains(t, h.api.lastMessage(t).Text, "cat")
}

type stubExamples struct {
	text string
	err  error
}

func (s stubExamples) Example(_ context.Context, word models.Word) (string, error) {
	return s.text, s.err
}

func TestRevealShowsExample(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name    string
		source  ExampleSource
		present bool
	}{
		{"generated", stubExamples{text: "The cat sleeps."}, true},
		{"generator fails", stubExamples{err: errors.New("quota")}, false},
		{"no generator", nil, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.bot.deps.Examples = tc.source
			topic := h.seedTopic(t, "Animals", "cat")
			words, err := h.words.GetByTopic(ctx, topic.ID)
			require.NoError(t, err)

			h.bot.handleUpdate(ctx, press(studentID, revealData(words[0].ID), "cat"))
			edit, ok := h.api.last(t).(tgbotapi.EditMessageTextConfig)
			require.True(t, ok)
			assert.Contains(t, edit.Text, "cat (ru)")
			if tc.present {
				assert.Contains(t, edit.Text, "💡 The cat sleeps.")
			} else {
				assert.NotContains(t, edit.Text, "💡")
			}
		})
	}
}

func TestGradeRejectsUnknownWordAndQuality(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	topic := h.seedTopic(t, "Colors", "red")
	h.bot.handleUpdate(ctx, command(studentID, "/start"))
	sentBefore := len(h.api.sent)

	h.bot.handleUpdate(ctx, press(studentID, "grade:999:3", "card"))
	h.bot.handleUpdate(ctx, press(studentID, fmt.Sprintf("grade:%d:7", topic.ID), "card"))

	assert.Len(t, h.api.sent, sentBefore)
	require.Len(t, h.api.requests, 2)
	assert.Equal(t, "Этого слова нет в вашем списке", h.api.requests[0].(tgbotapi.CallbackConfig).Text)
	assert.Equal(t, "Неверная оценка", h.api.requests[1].(tgbotapi.CallbackConfig).Text)
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	topic := h.seedTopic(t, "Food", "bread", "milk")
	h.bot.handleUpdate(ctx, press(studentID, learnData(topic.ID), ""))

	h.bot.handleUpdate(ctx, command(studentID, "/stats"))
	msg := h.api.lastMessage(t)
	assert.Contains(t, msg.Text, "Всего слов: 2")
	assert.Contains(t, msg.Text, "К повторению сегодня: 2")
	assert.Contains(t, msg.Text, "Серия: 0 дней")
	assert.Equal(t, []string{callbackReview}, inlineData(t, msg.ReplyMarkup))
}

func TestNotificationSettings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.bot.handleUpdate(ctx, command(studentID, "/time 25"))
	assert.Contains(t, h.api.lastMessage(t).Text, "корректный час")

	h.bot.handleUpdate(ctx, command(studentID, "/time 18"))
	assert.Contains(t, h.api.lastMessage(t).Text, "18:00")

	h.bot.handleUpdate(ctx, command(studentID, "/notify off"))
	assert.Contains(t, h.api.lastMessage(t).Text, "выключены")

	h.bot.handleUpdate(ctx, command(studentID, "/notify maybe"))
	assert.Contains(t, h.api.lastMessage(t).Text, "on или off")

	user, err := h.bot.deps.Users.GetByID(ctx, studentID)
	require.NoError(t, err)
	assert.False(t, user.NotificationEnabled)
	assert.Equal(t, 18, user.NotificationHour)
}

func TestImportRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	h.bot.handleUpdate(context.Background(), command(studentID, "/import"))
	assert.Contains(t, h.api.lastMessage(t).Text, "только администраторам")
}

func TestImportDocument(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.files["file-1"] = []byte("word,translation,description,topic\nhouse,дом,,Home\nroof,крыша,,Home\n")

	h.bot.handleUpdate(ctx, command(adminID, "/import"))
	assert.Contains(t, h.api.lastMessage(t).Text, "Отправьте файл")

	h.bot.handleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: adminID},
		Chat:     &tgbotapi.Chat{ID: adminID},
		Document: &tgbotapi.Document{FileID: "file-1", FileName: "home.csv"},
	}})

	msg := h.api.lastMessage(t)
	assert.Contains(t, msg.Text, "Добавлено слов: 2")
	assert.Contains(t, msg.Text, "Новых тем: 1")

	topic, err := h.topics.GetByName(ctx, "home")
	require.NoError(t, err)
	words, err := h.words.GetByTopic(ctx, topic.ID)
	require.NoError(t, err)
	assert.Len(t, words, 2)

	// without a fresh /import the next document is refused
	h.bot.handleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: adminID},
		Chat:     &tgbotapi.Chat{ID: adminID},
		Document: &tgbotapi.Document{FileID: "file-1", FileName: "home.csv"},
	}})
	assert.Contains(t, h.api.lastMessage(t).Text, "сначала отправьте /import")
}

func TestSendReminder(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.bot.SendReminder(studentID, 3))

	msg := h.api.lastMessage(t)
	assert.Equal(t, studentID, msg.ChatID)
	assert.Contains(t, msg.Text, "3 слова")
	assert.Equal(t, []string{callbackReview}, inlineData(t, msg.ReplyMarkup))

	h.api.fail = true
	assert.Error(t, h.bot.SendReminder(studentID, 1))
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data    string
		want    callback
		wantErr bool
	}{
		{"review", callback{action: callbackReview}, false},
		{"stats", callback{action: callbackStats}, false},
		{"learn:12", callback{action: callbackLearn, id: 12}, false},
		{"reveal:7", callback{action: callbackReveal, id: 7}, false},
		{"grade:7:4", callback{action: callbackGrade, id: 7, quality: 4}, false},
		{"grade:7", callback{}, true},
		{"grade:x:4", callback{}, true},
		{"grade:7:good", callback{}, true},
		{"learn", callback{}, true},
		{"review:1", callback{}, true},
		{"dance:1", callback{}, true},
		{"", callback{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := parseCallback(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallbackDataRoundTrip(t *testing.T) {
	cb, err := parseCallback(gradeData(42, sr.QualityHard))
	require.NoError(t, err)
	assert.Equal(t, callback{action: callbackGrade, id: 42, quality: 2}, cb)
}

func TestPlural(t *testing.T) {
	tests := map[int]string{
		0: "слов", 1: "слово", 2: "слова", 4: "слова", 5: "слов",
		11: "слов", 12: "слов", 14: "слов", 21: "слово", 22: "слова", 101: "слово", 111: "слов",
	}
	for n, want := range tests {
		assert.Equal(t, want, pluralWords(n), "n=%d", n)
	}
	assert.Equal(t, "дня", pluralDays(3))
	assert.Equal(t, "дней", pluralDays(15))
}
