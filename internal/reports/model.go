package reports

import "time"

// Format selects the report encoding.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
)

func (f Format) Valid() bool {
	switch f {
	case FormatPDF, FormatHTML, FormatXLSX:
		return true
	}
	return false
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/html; charset=utf-8"
	}
}

// Report is the rendering-neutral view of the selected requests.
type Report struct {
	GeneratedAt time.Time
	GeneratedBy string
	Sections    []Section
}

// Section describes one request.
type Section struct {
	Number       int
	ID           int64
	Title        string
	Agency       string
	Owner        string
	Description  string
	SubmittedAt  time.Time
	EndDate      time.Time
	Stage        string
	Verification string
	FileURL      string
	Checklist    Checklist
	Stages       []StageEvidence
	Notes        []NoteLine
}

// Checklist summarises development activities.
type Checklist struct {
	Total     int
	Completed int
	Items     []ChecklistItem
}

// Percent is the share of completed activities, rounded down.
func (c Checklist) Percent() int {
	if c.Total == 0 {
		return 0
	}
	return c.Completed * 100 / c.Total
}

type ChecklistItem struct {
	Iteration   int
	Description string
	PIC         string
	Completed   bool
}

// StageEvidence groups the artifacts attached to one history entry.
type StageEvidence struct {
	Label     string
	At        time.Time
	Reason    string
	Documents []FileLine
	Images    []FileLine
}

type FileLine struct {
	Name         string
	URL          string
	Verification string
}

type NoteLine struct {
	Title string
	At    time.Time
}

// File is a rendered report ready to be sent.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}
