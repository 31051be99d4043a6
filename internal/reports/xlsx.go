package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetRequests  = "Requests"
	sheetChecklist = "Checklist"
	sheetEvidence  = "Evidence"
)

var (
	requestHeader   = []any{"No", "ID", "Title", "Agency", "Applicant", "Submitted", "Stage", "Verification", "Target date", "Checklist %"}
	checklistHeader = []any{"Request ID", "Request", "#", "Activity", "PIC", "Done"}
	evidenceHeader  = []any{"Request ID", "Request", "Stage", "Recorded", "Type", "File", "Verification", "URL"}
)

// RenderXLSX writes one workbook with a summary sheet plus checklist and
// evidence sheets keyed by request ID.
func RenderXLSX(r Report) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetRequests); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetChecklist, sheetEvidence} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F4F4F4"}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	w := sheetWriter{f: f}
	w.header(sheetRequests, requestHeader, bold)
	w.header(sheetChecklist, checklistHeader, bold)
	w.header(sheetEvidence, evidenceHeader, bold)

	for _, s := range r.Sections {
		w.row(sheetRequests, []any{
			s.Number, s.ID, s.Title, s.Agency, s.Owner,
			formatTime(s.SubmittedAt, "2006-01-02"), s.Stage, s.Verification,
			formatTime(s.EndDate, "2006-01-02"), s.Checklist.Percent(),
		})
		for _, item := range s.Checklist.Items {
			w.row(sheetChecklist, []any{s.ID, s.Title, item.Iteration, item.Description, item.PIC, yesNo(item.Completed)})
		}
		for _, stage := range s.Stages {
			at := formatTime(stage.At, "2006-01-02 15:04")
			for _, img := range stage.Images {
				w.row(sheetEvidence, []any{s.ID, s.Title, stage.Label, at, "image", img.Name, img.Verification, img.URL})
			}
			for _, doc := range stage.Documents {
				w.row(sheetEvidence, []any{s.ID, s.Title, stage.Label, at, "document", doc.Name, doc.Verification, doc.URL})
			}
		}
	}
	if w.err != nil {
		return nil, w.err
	}

	_ = f.SetColWidth(sheetRequests, "C", "E", 30)
	_ = f.SetColWidth(sheetChecklist, "D", "D", 40)
	_ = f.SetColWidth(sheetEvidence, "F", "F", 30)
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetWriter appends rows per sheet and keeps the first error.
type sheetWriter struct {
	f    *excelize.File
	next map[string]int
	err  error
}

func (w *sheetWriter) header(sheet string, values []any, style int) {
	w.row(sheet, values)
	if w.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(values), 1)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellStyle(sheet, "A1", last, style); err != nil {
		w.err = fmt.Errorf("style %s header: %w", sheet, err)
	}
}

func (w *sheetWriter) row(sheet string, values []any) {
	if w.err != nil {
		return
	}
	if w.next == nil {
		w.next = make(map[string]int)
	}
	w.next[sheet]++
	cell, err := excelize.CoordinatesToCellName(1, w.next[sheet])
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", sheet, w.next[sheet], err)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
