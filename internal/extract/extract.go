package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"

	"urs-backend/internal/shared/storage/object"
)

const (
	MimePDF  = "application/pdf"
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeGIF  = "image/gif"

	MaxPDFBytes   int64 = 2 << 20
	MaxImageBytes int64 = 5 << 20
)

var (
	ErrTooLarge        = errors.New("file is too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidPDF      = errors.New("file is not a readable PDF")
	ErrEmpty           = errors.New("file is empty")
)

// ReadLimited reads at most max bytes from r and fails with ErrTooLarge when more remain.
func ReadLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > max {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}

// ValidatePDF checks the size limit, the content type and that the document parses.
func ValidatePDF(data []byte) error {
	if len(data) == 0 {
		return ErrEmpty
	}
	if int64(len(data)) > MaxPDFBytes {
		return ErrTooLarge
	}
	if http.DetectContentType(data) != MimePDF {
		return ErrUnsupportedType
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if reader.NumPage() == 0 {
		return ErrInvalidPDF
	}
	return nil
}

// ValidateImage checks the size limit and returns the sniffed image type.
func ValidateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > MaxImageBytes {
		return "", ErrTooLarge
	}
	switch mime := http.DetectContentType(data); mime {
	case MimeJPEG, MimePNG, MimeGIF:
		return mime, nil
	default:
		return "", ErrUnsupportedType
	}
}

// PDFText returns the plain text of a PDF, truncated to maxChars runes when maxChars > 0.
func PDFText(ctx context.Context, data []byte, maxChars int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	text := strings.Join(strings.Fields(buf.String()), " ")
	if maxChars > 0 {
		if runes := []rune(text); len(runes) > maxChars {
			text = string(runes[:maxChars])
		}
	}
	return text, nil
}

// StoredPDFText opens a stored PDF and extracts its text.
func StoredPDFText(ctx context.Context, store object.ObjectStore, storageKey string, maxChars int) (string, error) {
	body, err := store.Open(ctx, storageKey)
	if err != nil {
		return "", fmt.Errorf("open key=%s: %w", storageKey, err)
	}
	defer body.Close()

	data, err := ReadLimited(body, MaxPDFBytes)
	if err != nil {
		return "", fmt.Errorf("read key=%s: %w", storageKey, err)
	}
	return PDFText(ctx, data, maxChars)
}
