package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/lingua/internal/logger"
	"github.com/example/lingua/pkg/models"
)

// Difficulty bounds for imported words
const (
	MinDifficulty     = 1
	MaxDifficulty     = 5
	DefaultDifficulty = 3
	DefaultTopic      = "General"
)

// Format of the imported file
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatFromName picks the format from a file name extension
func FormatFromName(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return FormatCSV
	}
	return FormatXLSX
}

// ImportConfig defines which columns hold which word fields
type ImportConfig struct {
	WordColumn          string
	TranslationColumn   string
	DescriptionColumn   string
	TopicColumn         string
	DifficultyColumn    string
	PronunciationColumn string
	SheetName           string // empty means the first sheet
	StartRow            int    // 1-based, rows before it are headers
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:          "A",
		TranslationColumn:   "B",
		DescriptionColumn:   "C",
		TopicColumn:         "D",
		DifficultyColumn:    "E",
		PronunciationColumn: "F",
		StartRow:            2,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	TopicsCreated  int
	Created        int
	Updated        int
	Errors         []string
}

// TopicStore resolves topics by name
type TopicStore interface {
	GetOrCreate(ctx context.Context, name string) (*models.Topic, bool, error)
}

// WordStore persists imported words
type WordStore interface {
	FindByWordAndTopic(ctx context.Context, word string, topicID int64) (*models.Word, error)
	Create(ctx context.Context, word *models.Word) error
	Update(ctx context.Context, word *models.Word) error
}

// Importer loads vocabulary from spreadsheets
type Importer struct {
	topics TopicStore
	words  WordStore
	log    *logger.Logger
}

// NewImporter creates an importer
func NewImporter(topics TopicStore, words WordStore, log *logger.Logger) *Importer {
	return &Importer{topics: topics, words: words, log: log}
}

// ImportFile imports words from an .xlsx or .csv file
func (im *Importer) ImportFile(ctx context.Context, path string, cfg ImportConfig) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return im.Import(ctx, f, FormatFromName(path), cfg)
}

// Import reads rows from r and creates or updates the words they describe.
// Row-level problems are collected in the result; only unreadable input fails.
func (im *Importer) Import(ctx context.Context, r io.Reader, format Format, cfg ImportConfig) (*ImportResult, error) {
	cols, err := resolveColumns(cfg)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	default:
		rows, err = readXLSX(r, cfg.SheetName)
	}
	if err != nil {
		return nil, err
	}

	start := cfg.StartRow
	if start < 1 {
		start = 1
	}

	result := &ImportResult{Errors: make([]string, 0)}
	topicIDs := make(map[string]int64)
	section := ""

	for i := start - 1; i < len(rows); i++ {
		rowNum := i + 1
		rec := cols.extract(rows[i])
		if rec.empty() {
			continue
		}

		// a row with only a word in it names the topic of the rows below
		if rec.Translation == "" && rec.Topic == "" && rec.Description == "" {
			section = rec.Word
			continue
		}

		if rec.Topic == "" {
			rec.Topic = section
		}
		if rec.Topic == "" {
			rec.Topic = DefaultTopic
		}

		result.TotalProcessed++
		if err := im.processRecord(ctx, rec, topicIDs, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	im.log.Info("Vocabulary import finished",
		"processed", result.TotalProcessed,
		"created", result.Created,
		"updated", result.Updated,
		"topics_created", result.TopicsCreated,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (im *Importer) processRecord(ctx context.Context, rec record, topicIDs map[string]int64, result *ImportResult) error {
	if rec.Translation == "" {
		return errors.New("translation cannot be empty")
	}
	if rec.Word == "" {
		return errors.New("word cannot be empty")
	}

	topicID, err := im.topicID(ctx, rec.Topic, topicIDs, result)
	if err != nil {
		return err
	}

	existing, err := im.words.FindByWordAndTopic(ctx, rec.Word, topicID)
	if err != nil {
		return err
	}

	if existing != nil {
		existing.Translation = rec.Translation
		existing.Description = rec.Description
		existing.Difficulty = rec.Difficulty
		existing.Pronunciation = rec.Pronunciation
		if err := im.words.Update(ctx, existing); err != nil {
			return err
		}
		result.Updated++
		return nil
	}

	word := &models.Word{
		Word:          rec.Word,
		Translation:   rec.Translation,
		Description:   rec.Description,
		TopicID:       topicID,
		Difficulty:    rec.Difficulty,
		Pronunciation: rec.Pronunciation,
	}
	if err := im.words.Create(ctx, word); err != nil {
		return err
	}
	result.Created++
	return nil
}

func (im *Importer) topicID(ctx context.Context, name string, cache map[string]int64, result *ImportResult) (int64, error) {
	key := strings.ToLower(name)
	if id, ok := cache[key]; ok {
		return id, nil
	}

	topic, created, err := im.topics.GetOrCreate(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to process topic: %w", err)
	}
	if created {
		result.TopicsCreated++
	}
	cache[key] = topic.ID
	return topic.ID, nil
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

type record struct {
	Word          string
	Translation   string
	Description   string
	Topic         string
	Difficulty    int
	Pronunciation string
}

func (r record) empty() bool {
	return r.Word == "" && r.Translation == ""
}

// columns holds 0-based indexes, -1 for unmapped fields
type columns struct {
	word, translation, description, topic, difficulty, pronunciation int
}

func resolveColumns(cfg ImportConfig) (columns, error) {
	var (
		c   columns
		err error
	)
	for _, m := range []struct {
		name string
		dst  *int
	}{
		{cfg.WordColumn, &c.word},
		{cfg.TranslationColumn, &c.translation},
		{cfg.DescriptionColumn, &c.description},
		{cfg.TopicColumn, &c.topic},
		{cfg.DifficultyColumn, &c.difficulty},
		{cfg.PronunciationColumn, &c.pronunciation},
	} {
		*m.dst = -1
		if m.name == "" {
			continue
		}
		n, e := excelize.ColumnNameToNumber(strings.TrimSpace(m.name))
		if e != nil {
			err = fmt.Errorf("invalid column %q: %w", m.name, e)
			break
		}
		*m.dst = n - 1
	}
	if err != nil {
		return columns{}, err
	}
	if c.word < 0 || c.translation < 0 {
		return columns{}, errors.New("word and translation columns are required")
	}
	return c, nil
}

func (c columns) extract(row []string) record {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	return record{
		Word:          cleanWord(cell(c.word)),
		Translation:   cell(c.translation),
		Description:   cell(c.description),
		Topic:         cell(c.topic),
		Difficulty:    parseDifficulty(cell(c.difficulty)),
		Pronunciation: cell(c.pronunciation),
	}
}

// cleanWord drops trailing notes in parentheses, e.g. "go (went, gone)"
func cleanWord(word string) string {
	if i := strings.Index(word, "("); i > 0 {
		return strings.TrimSpace(word[:i])
	}
	return strings.TrimSpace(word)
}

func parseDifficulty(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return DefaultDifficulty
	}
	if n < MinDifficulty {
		return MinDifficulty
	}
	if n > MaxDifficulty {
		return MaxDifficulty
	}
	return n
}
