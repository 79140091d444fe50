package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/lingua/internal/excel"
	"github.com/example/lingua/internal/review"
	sr "github.com/example/lingua/internal/spaced_repetition"
	"github.com/example/lingua/pkg/models"
)

// Callback data prefixes
const (
	callbackLearn  = "learn"
	callbackReveal = "reveal"
	callbackGrade  = "grade"
	callbackReview = "review"
	callbackStats  = "stats"
	callbackTopics = "topics"
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

// MainMenuButtons returns the buttons shown under /start and /help
func MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "▶️ Повторять слова", CallbackData: callbackReview}},
		{{Text: "📚 Темы", CallbackData: callbackTopics}, {Text: "📊 Статистика", CallbackData: callbackStats}},
	}
}

// callback is parsed inline button data
type callback struct {
	action  string
	id      int64
	quality int
}

func learnData(topicID int64) string { return fmt.Sprintf("%s:%d", callbackLearn, topicID) }
func revealData(wordID int64) string { return fmt.Sprintf("%s:%d", callbackReveal, wordID) }
func gradeData(wordID int64, q sr.Quality) string {
	return fmt.Sprintf("%s:%d:%d", callbackGrade, wordID, int(q))
}

func parseCallback(data string) (callback, error) {
	parts := strings.Split(data, ":")
	cb := callback{action: parts[0]}

	switch cb.action {
	case callbackReview, callbackStats, callbackTopics:
		if len(parts) != 1 {
			return callback{}, fmt.Errorf("malformed callback %q", data)
		}
		return cb, nil
	case callbackLearn, callbackReveal:
		if len(parts) != 2 {
			return callback{}, fmt.Errorf("malformed callback %q", data)
		}
	case callbackGrade:
		if len(parts) != 3 {
			return callback{}, fmt.Errorf("malformed callback %q", data)
		}
		q, err := strconv.Atoi(parts[2])
		if err != nil {
			return callback{}, fmt.Errorf("malformed quality in %q: %w", data, err)
		}
		cb.quality = q
	default:
		return callback{}, fmt.Errorf("unknown callback %q", data)
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return callback{}, fmt.Errorf("malformed id in %q: %w", data, err)
	}
	cb.id = id
	return cb, nil
}

var qualityLabels = map[sr.Quality]string{
	sr.QualityAgain: "🔴 Не помню",
	sr.QualityHard:  "🟠 Трудно",
	sr.QualityGood:  "🟢 Хорошо",
	sr.QualityEasy:  "🔵 Легко",
}

func cardFront(word models.Word) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("🔤 " + word.Word)
	if word.Pronunciation != "" {
		sb.WriteString("  [" + strings.Trim(word.Pronunciation, "[]") + "]")
	}
	sb.WriteString("\n\nВспомните перевод и нажмите «Показать».")

	return sb.String(), createKeyboard([][]MenuButton{
		{{Text: "👀 Показать", CallbackData: revealData(word.ID)}},
	})
}

func cardBack(word models.Word, example string) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("🔤 " + word.Word)
	if word.Pronunciation != "" {
		sb.WriteString("  [" + strings.Trim(word.Pronunciation, "[]") + "]")
	}
	sb.WriteString("\n💬 " + word.Translation)
	if word.Description != "" {
		sb.WriteString("\n📝 " + word.Description)
	}
	if example != "" {
		sb.WriteString("\n💡 " + example)
	}
	sb.WriteString("\n\nНасколько легко было вспомнить?")

	row := make([]MenuButton, 0, len(sr.Qualities))
	for _, q := range sr.Qualities {
		row = append(row, MenuButton{Text: qualityLabels[q], CallbackData: gradeData(word.ID, q)})
	}
	return sb.String(), createKeyboard([][]MenuButton{row[:2], row[2:]})
}

func gradedText(q sr.Quality, state sr.State) string {
	return fmt.Sprintf("%s\nСледующее повторение через %d %s.", qualityLabels[q], state.IntervalDays, pluralDays(state.IntervalDays))
}

func statsText(d review.Dashboard) string {
	var sb strings.Builder
	sb.WriteString("📊 Ваша статистика\n\n")
	fmt.Fprintf(&sb, "📚 Всего слов: %d\n", d.Total)
	fmt.Fprintf(&sb, "⏰ К повторению сегодня: %d\n", d.DueToday)
	fmt.Fprintf(&sb, "📅 В ближайшие 3 дня: %d\n", d.DueSoon)
	fmt.Fprintf(&sb, "🏆 Выучено: %d\n", d.Mastered)
	fmt.Fprintf(&sb, "\n🔥 Серия: %d %s (рекорд: %d)\n", d.CurrentStreak, pluralDays(d.CurrentStreak), d.LongestStreak)
	fmt.Fprintf(&sb, "✅ Всего повторений: %d", d.TotalReviews)
	return sb.String()
}

func topicsKeyboard(topics []models.Topic, counts map[int64]int) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]MenuButton, 0, len(topics))
	for _, t := range topics {
		rows = append(rows, []MenuButton{{
			Text:         fmt.Sprintf("📚 %s (%d)", t.Name, counts[t.ID]),
			CallbackData: learnData(t.ID),
		}})
	}
	return createKeyboard(rows)
}

func importText(res *excel.ImportResult) string {
	text := fmt.Sprintf("✅ Импорт завершён\n\nОбработано строк: %d\nДобавлено слов: %d\nОбновлено слов: %d\nНовых тем: %d",
		res.TotalProcessed, res.Created, res.Updated, res.TopicsCreated)
	if len(res.Errors) == 0 {
		return text
	}

	const maxShown = 10
	text += fmt.Sprintf("\n\n⚠️ Ошибки (%d):", len(res.Errors))
	for i, e := range res.Errors {
		if i == maxShown {
			text += fmt.Sprintf("\n… и ещё %d", len(res.Errors)-maxShown)
			break
		}
		text += "\n• " + e
	}
	return text
}

// pluralWords picks the Russian noun form for a word count
func pluralWords(n int) string {
	return plural(n, "слово", "слова", "слов")
}

func pluralDays(n int) string {
	return plural(n, "день", "дня", "дней")
}

func plural(n int, one, few, many string) string {
	n %= 100
	if n < 0 {
		n = -n
	}
	if n >= 11 && n <= 14 {
		return many
	}
	switch n % 10 {
	case 1:
		return one
	case 2, 3, 4:
		return few
	default:
		return many
	}
}
