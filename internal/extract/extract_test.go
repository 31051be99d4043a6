package extract

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"urs-backend/internal/extract/extracttest"
	localstore "urs-backend/internal/shared/storage/object/local"
)

func TestValidatePDF(t *testing.T) {
	if err := ValidatePDF(extracttest.PDF("Permohonan aplikasi")); err != nil {
		t.Fatalf("expected valid pdf, got %v", err)
	}
	if err := ValidatePDF([]byte("just text")); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if err := ValidatePDF([]byte("%PDF-1.4\ngarbage")); !errors.Is(err, ErrInvalidPDF) {
		t.Fatalf("expected ErrInvalidPDF, got %v", err)
	}
	big := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("a"), int(MaxPDFBytes))...)
	if err := ValidatePDF(big); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestValidateImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	mime, err := ValidateImage(png)
	if err != nil || mime != MimePNG {
		t.Fatalf("expected png, got %q %v", mime, err)
	}
	if _, err := ValidateImage([]byte("GIF89a....")); err != nil {
		t.Fatalf("expected gif accepted, got %v", err)
	}
	if _, err := ValidateImage(extracttest.PDF("x")); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected pdf rejected as image, got %v", err)
	}
	if _, err := ValidateImage(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestReadLimited(t *testing.T) {
	if _, err := ReadLimited(strings.NewReader("12345"), 4); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	data, err := ReadLimited(strings.NewReader("1234"), 4)
	if err != nil || string(data) != "1234" {
		t.Fatalf("unexpected %q %v", data, err)
	}
}

func TestStoredPDFTextTruncates(t *testing.T) {
	ctx := context.Background()
	store := localstore.New(t.TempDir())
	key, _, _, err := store.Save(ctx, "pdfs", "form.pdf", bytes.NewReader(extracttest.PDF("Sistem Informasi Kepegawaian")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	text, err := StoredPDFText(ctx, store, key, 6)
	if err != nil {
		t.Fatalf("StoredPDFText: %v", err)
	}
	if text != "Sistem" {
		t.Fatalf("unexpected text %q", text)
	}
}
