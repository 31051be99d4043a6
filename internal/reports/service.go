package reports

import (
	"context"
	"errors"
	"time"

	"urs-backend/internal/requests"
	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
	"urs-backend/internal/shared/telemetry"
)

const maxRequestsPerReport = 100

// DetailSource loads a request with everything a report shows, enforcing
// agency access.
type DetailSource interface {
	Detail(ctx context.Context, actor access.Principal, id int64) (requests.Detail, error)
}

type Service struct {
	Requests DetailSource
	Renderer PDFRenderer
	// BaseURL prefixes file links inside the report.
	BaseURL string
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Generate renders the selected requests. Requests the actor cannot see are
// silently left out; an empty selection after filtering is rejected.
func (s *Service) Generate(ctx context.Context, actor access.Principal, ids []int64, format Format) (File, error) {
	if format == "" {
		format = FormatPDF
	}
	if !format.Valid() {
		return File{}, apperr.Invalid("format", "format must be pdf, html or xlsx")
	}
	if len(ids) == 0 {
		return File{}, apperr.Invalid("requestIds", "select at least one request")
	}
	if len(ids) > maxRequestsPerReport {
		return File{}, apperr.Invalid("requestIds", "too many requests selected")
	}

	details, err := s.collect(ctx, actor, ids)
	if err != nil {
		return File{}, err
	}
	if len(details) == 0 {
		return File{}, apperr.NotFound("request")
	}

	now := s.now()
	report := Build(details, actor.Name, now, s.BaseURL)
	name := "request-report-" + now.Format("20060102_150405") + "." + string(format)

	var body []byte
	switch format {
	case FormatXLSX:
		body, err = RenderXLSX(report)
	case FormatHTML:
		body, err = RenderHTML(report)
	case FormatPDF:
		body, err = RenderHTML(report)
		if err == nil {
			body, err = s.renderPDF(ctx, body)
		}
	}
	if err != nil {
		return File{}, err
	}
	telemetry.Info("report.generated", map[string]any{
		"user_id":  actor.UserID,
		"format":   string(format),
		"requests": len(details),
	})
	return File{Name: name, ContentType: format.ContentType(), Body: body}, nil
}

func (s *Service) collect(ctx context.Context, actor access.Principal, ids []int64) ([]requests.Detail, error) {
	seen := make(map[int64]bool, len(ids))
	var out []requests.Detail
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		d, err := s.Requests.Detail(ctx, actor, id)
		if err != nil {
			var forbidden *apperr.AuthorizationError
			var notFound *apperr.NotFoundError
			if errors.As(err, &forbidden) || errors.As(err, &notFound) {
				continue
			}
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Service) renderPDF(ctx context.Context, html []byte) ([]byte, error) {
	if s.Renderer == nil {
		return nil, apperr.External("PDF renderer", ErrRendererNotConfigured)
	}
	pdf, err := s.Renderer.RenderPDF(ctx, html)
	if err != nil {
		telemetry.Error("report.pdf_failed", map[string]any{"error": err.Error()})
		return nil, apperr.External("PDF renderer", err)
	}
	return pdf, nil
}
