package drafting

import (
	"context"
	"strings"

	"urs-backend/internal/extract"
	"urs-backend/internal/llm"
	"urs-backend/internal/notes"
	"urs-backend/internal/requests"
	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
	"urs-backend/internal/shared/storage/object"
	"urs-backend/internal/shared/telemetry"
)

const (
	defaultMaxTokens = 2000
	maxDocumentChars = 4000
	maxTitleLength   = 255
)

// RequestSource returns a request the actor may see.
type RequestSource interface {
	Get(ctx context.Context, actor access.Principal, id int64) (requests.Request, error)
}

type Service struct {
	Requests  RequestSource
	Store     object.ObjectStore
	Generator llm.Generator
	MaxTokens int
}

type Input struct {
	Title        string
	Context      string
	ExistingNote string
}

type Draft struct {
	Text  string
	Model string
}

// Draft asks the LLM for meeting minutes about a request. Nothing is stored;
// provider failures surface as *apperr.ExternalServiceError.
func (s *Service) Draft(ctx context.Context, actor access.Principal, requestID int64, in Input) (Draft, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Draft{}, apperr.Invalid("title", "title is required")
	}
	if len(title) > maxTitleLength {
		return Draft{}, apperr.Invalid("title", "title must be at most 255 characters")
	}
	req, err := s.Requests.Get(ctx, actor, requestID)
	if err != nil {
		return Draft{}, err
	}

	prompt, err := UserPrompt(PromptData{
		Title:        title,
		RequestTitle: req.Title,
		Description:  req.Description,
		Agency:       req.Agency,
		StartDate:    longDate(req.StartDate),
		Context:      strings.TrimSpace(in.Context),
		ExistingNote: notes.PlainText(in.ExistingNote),
		Document:     s.documentText(ctx, req),
	})
	if err != nil {
		return Draft{}, err
	}

	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	result, err := s.Generator.Generate(ctx, SystemPrompt(), prompt, maxTokens)
	if err != nil {
		telemetry.Error("drafting.failed", map[string]any{"request_id": requestID, "error": err.Error()})
		return Draft{}, apperr.External("AI drafting", err)
	}
	return Draft{Text: result.Text, Model: result.Model}, nil
}

// documentText is best effort: an unreadable PDF only drops the excerpt.
func (s *Service) documentText(ctx context.Context, req requests.Request) string {
	if s.Store == nil || req.FileKey == "" {
		return ""
	}
	text, err := extract.StoredPDFText(ctx, object.Bounded(s.Store), req.FileKey, maxDocumentChars)
	if err != nil {
		telemetry.Warn("drafting.pdf_text_skipped", map[string]any{"request_id": req.ID, "error": err.Error()})
		return ""
	}
	return text
}
