package drafting

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"
)

var (
	//go:embed prompts/system.txt
	systemPrompt string
	//go:embed prompts/new_note.tmpl
	newNoteSource string
	//go:embed prompts/rewrite_note.tmpl
	rewriteNoteSource string
)

var (
	newNoteTmpl     = template.Must(template.New("new_note").Parse(newNoteSource))
	rewriteNoteTmpl = template.Must(template.New("rewrite_note").Parse(rewriteNoteSource))
)

// PromptData is the request context rendered into a user prompt.
type PromptData struct {
	Title        string
	RequestTitle string
	Description  string
	Agency       string
	StartDate    string
	Context      string
	ExistingNote string
	Document     string
}

// SystemPrompt is the fixed instruction sent with every draft.
func SystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}

// UserPrompt rewrites ExistingNote when present, otherwise asks for a new note.
func UserPrompt(d PromptData) (string, error) {
	tmpl := newNoteTmpl
	if strings.TrimSpace(d.ExistingNote) != "" {
		tmpl = rewriteNoteTmpl
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, d); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(b.String()), nil
}

var months = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// longDate formats t as "2 Januari 2024".
func longDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
}
