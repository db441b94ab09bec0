package services

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kantina/canteen/internal/logging"
	"github.com/kantina/canteen/internal/server/repositories/repomanager"
)

// ImportDateLayout is the timestamp format of the legacy registration sheet.
const ImportDateLayout = "02-01-2006 15:04:05"

// Columns of the legacy sheet. Id is read but not kept; new IDs are issued.
var importColumns = []string{"dato", "Navn", "Fyritoka", "Maltid", "NrOfPersons", "Umbod"}

// ImportResult summarizes an import run. Errors holds one line per failed row.
type ImportResult struct {
	Imported int
	Failed   int
	Errors   []string
}

// ImportService loads historical registrations from the legacy CSV export.
type ImportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	location    *time.Location
}

func NewImportService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ImportService {
	return &ImportService{
		db:          db,
		repomanager: m,
		log:         log.With("module", "import"),
		location:    time.Local,
	}
}

// Import stores every valid row as a pending entry with its original
// timestamp. Bad rows are counted and reported; only a malformed header or a
// store failure aborts the run.
func (s *ImportService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, validationError("empty file")
		}
		return nil, validationError("read header: %v", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range importColumns {
		if _, ok := index[col]; !ok {
			return nil, validationError("missing column %q", col)
		}
	}

	repo := s.repomanager.Entries(s.db)
	result := &ImportResult{}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return result, fmt.Errorf("read csv: %w", err)
			}
			result.fail(pe.Line, validationError("%v", err))
			continue
		}
		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}

		field := func(name string) string {
			i := index[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		createdAt, err := time.ParseInLocation(ImportDateLayout, field("dato"), s.location)
		if err != nil {
			result.fail(line, validationError("bad date %q", field("dato")))
			continue
		}

		e, err := NewEntry(EntryInput{
			Name:           field("Navn"),
			Company:        field("Fyritoka"),
			Meal:           field("Maltid"),
			Amount:         field("NrOfPersons"),
			Representative: field("Umbod"),
		})
		if err != nil {
			result.fail(line, err)
			continue
		}
		e.CreatedAt = createdAt

		if _, err := repo.Create(ctx, e); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			s.log.Warn(ctx, "import row rejected by store", "line", line, "error", err)
			result.fail(line, storeError("create entry", err))
			continue
		}
		result.Imported++
	}

	s.log.Info(ctx, "import finished", "imported", result.Imported, "failed", result.Failed)
	return result, nil
}

func (r *ImportResult) fail(line int, err error) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("line %d: %v", line, err))
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
