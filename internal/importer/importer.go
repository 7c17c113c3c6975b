// Package importer loads memos in bulk from .xlsx workbooks.
//
// The first sheet is read. Row 1 is a header and is skipped. Columns are, in
// order: original text, translation, note, evaluation text, language. Rows
// without original text are skipped and reported in the Result.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	colOriginal = iota
	colTranslation
	colNote
	colEvaluation
	colLanguage
)

// DefaultBatchSize is the number of memos written per CreateMultiple call.
const DefaultBatchSize = 500

// ErrNoSheet is returned when the workbook has no sheets.
var ErrNoSheet = errors.New("workbook has no sheets")

// Inserter persists a batch of memos atomically. store.MemoStore satisfies it.
type Inserter interface {
	CreateMultiple(ctx context.Context, memos []*domain.Memo) error
}

// SkippedRow describes a row that was not imported. Row is 1-based, as shown
// in spreadsheet applications.
type SkippedRow struct {
	Row    int
	Reason string
}

// Result summarizes an import.
type Result struct {
	Imported int
	Skipped  []SkippedRow
}

// Importer reads workbooks and writes memos for a single user per call.
type Importer struct {
	store     Inserter
	batchSize int
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithBatchSize overrides DefaultBatchSize. Values below 1 are ignored.
func WithBatchSize(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

// WithClock replaces time.Now for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

// New creates an Importer. It panics if store is nil.
func New(store Inserter, logger *slog.Logger, opts ...Option) *Importer {
	if store == nil {
		panic("store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	i := &Importer{
		store:     store,
		batchSize: DefaultBatchSize,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "importer")),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ImportFile imports the workbook at path for userID.
func (i *Importer) ImportFile(ctx context.Context, userID uuid.UUID, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return i.Import(ctx, userID, f)
}

// Import reads a workbook from r and stores its rows as new memos owned by
// userID. Each batch is written in one transaction; a failing batch stops
// the import and earlier batches stay committed.
func (i *Importer) Import(ctx context.Context, userID uuid.UUID, r io.Reader) (*Result, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user ID cannot be empty", domain.ErrInvalidID)
	}

	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	defer func() {
		if cerr := wb.Close(); cerr != nil {
			i.logger.Warn("failed to close workbook", slog.String("error", cerr.Error()))
		}
	}()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheets[0], err)
	}

	result := &Result{}
	now := i.now()
	batch := make([]*domain.Memo, 0, i.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := i.store.CreateMultiple(ctx, batch); err != nil {
			return fmt.Errorf("failed to store memos: %w", err)
		}
		result.Imported += len(batch)
		batch = batch[:0]
		return nil
	}

	for idx, row := range rows {
		if idx == 0 {
			continue
		}
		rowNum := idx + 1

		content := rowContent(row)
		if strings.TrimSpace(content.OriginalText) == "" {
			if !blank(row) {
				result.Skipped = append(result.Skipped, SkippedRow{Row: rowNum, Reason: "missing original text"})
			}
			continue
		}

		// Creation times step by a millisecond so new memos are introduced
		// in sheet order.
		memo, err := domain.NewMemo(userID, content, now.Add(time.Duration(idx)*time.Millisecond))
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Row: rowNum, Reason: err.Error()})
			continue
		}
		batch = append(batch, memo)

		if len(batch) >= i.batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	i.logger.InfoContext(ctx, "workbook imported",
		slog.String("user_id", userID.String()),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", len(result.Skipped)))
	return result, nil
}

func rowContent(row []string) domain.MemoContent {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	return domain.MemoContent{
		OriginalText:   cell(colOriginal),
		TranslatedText: cell(colTranslation),
		Note:           cell(colNote),
		EvaluationText: cell(colEvaluation),
		Language:       cell(colLanguage),
	}
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
