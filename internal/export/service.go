package export

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/punchlog/constants"
	"github.com/joseph-ayodele/punchlog/internal/entity"
	"github.com/joseph-ayodele/punchlog/internal/repository"
)

// DefaultSheet names the sheet of a single-document export.
const DefaultSheet = "Punches"

// Headers are the fixed export columns, in order.
var Headers = []string{"Date", "User ID", "Name", "Punch Time", "I/O Type"}

// Sheet is one worksheet of a workbook.
type Sheet struct {
	Name    string
	Records []entity.PunchRecord
}

// WriteXLSX renders records as a single-sheet workbook.
func WriteXLSX(records []entity.PunchRecord) ([]byte, error) {
	return WriteWorkbook([]Sheet{{Name: DefaultSheet, Records: records}})
}

// WriteWorkbook renders one worksheet per Sheet, in order. Sheet names are
// made valid and unique; the first sheet is active. Every cell is text, and
// an UNKNOWN direction is an empty cell.
func WriteWorkbook(sheets []Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		sheets = []Sheet{{Name: DefaultSheet}}
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}

	taken := map[string]bool{}
	for i, sh := range sheets {
		name := SheetName(sh.Name, taken)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, fmt.Errorf("xlsx rename sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("xlsx new sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, sh.Records, headerStyle); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, records []entity.PunchRecord, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &Headers); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(Headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("xlsx header style: %w", err)
	}

	for i, r := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := r.Row()
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 14) // user id
	_ = f.SetColWidth(sheet, "C", "C", 32) // name
	_ = f.SetColWidth(sheet, "D", "D", 12) // time
	_ = f.SetColWidth(sheet, "E", "E", 10) // direction
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	return nil
}

const maxSheetName = 31

// SheetName turns s into a valid worksheet name not already in taken, and
// marks it taken. Characters excelize rejects become '_'.
func SheetName(s string, taken map[string]bool) string {
	s = strings.TrimSuffix(filepath.Base(s), filepath.Ext(s))
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, s)
	s = strings.Trim(s, "' ")
	if s == "" || s == "." {
		s = DefaultSheet
	}
	s = truncate(s, maxSheetName)

	name := s
	for n := 2; taken[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncate(s, maxSheetName-len(suffix)) + suffix
	}
	taken[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Service exports stored runs.
type Service struct {
	runsRepo    repository.RunRepository
	punchesRepo repository.PunchRepository
	logger      *slog.Logger
}

func NewService(runs repository.RunRepository, punches repository.PunchRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runsRepo: runs, punchesRepo: punches, logger: logger}
}

// ExportRunsXLSX returns a workbook with one sheet per run, named after the
// run's source document.
func (s *Service) ExportRunsXLSX(ctx context.Context, runIDs []uuid.UUID) ([]byte, error) {
	start := time.Now()

	sheets := make([]Sheet, 0, len(runIDs))
	rows := 0
	for _, id := range runIDs {
		run, err := s.runsRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("query run %s: %w", id, err)
		}
		recs, err := s.punchesRepo.ListByRun(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("query punches for run %s: %w", id, err)
		}
		sheets = append(sheets, Sheet{Name: run.SourcePath, Records: recs})
		rows += len(recs)
	}

	b, err := WriteWorkbook(sheets)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"runs", len(runIDs),
		"rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// ExportRecentXLSX exports the OK runs among the limit most recent ones. It
// returns the number of runs exported; with none it returns no workbook.
func (s *Service) ExportRecentXLSX(ctx context.Context, limit int) ([]byte, int, error) {
	runs, err := s.runsRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(runs))
	for _, r := range runs {
		if r.Status == string(constants.RunStatusOK) {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		s.logger.Info("export.xlsx.empty", "runs", len(runs))
		return nil, 0, nil
	}
	b, err := s.ExportRunsXLSX(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return b, len(ids), nil
}
