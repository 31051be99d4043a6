package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"urs-backend/internal/shared/apperr"
)

func multipartRequest(t *testing.T, field, name string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		w, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		w.Write(body)
	}
	mw.WriteField("title", "x")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func run(t *testing.T, req *http.Request, fn func(c *gin.Context)) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	fn(c)
}

func TestFromFormReadsFile(t *testing.T) {
	run(t, multipartRequest(t, "file", "form.pdf", []byte("%PDF-1.4")), func(c *gin.Context) {
		f, err := FromForm(c, "file", 1024)
		if err != nil {
			t.Fatalf("FromForm: %v", err)
		}
		if f.Name != "form.pdf" || string(f.Data) != "%PDF-1.4" {
			t.Fatalf("unexpected file %+v", f)
		}
	})
}

func TestFromFormMissingAndTooLarge(t *testing.T) {
	run(t, multipartRequest(t, "", "", nil), func(c *gin.Context) {
		_, err := FromForm(c, "file", 1024)
		var verr *apperr.ValidationError
		if !errors.As(err, &verr) || verr.Fields["file"] != "file is required" {
			t.Fatalf("expected required error, got %v", err)
		}
	})
	run(t, multipartRequest(t, "image", "big.png", bytes.Repeat([]byte("a"), 64)), func(c *gin.Context) {
		_, err := FromForm(c, "image", 16)
		var verr *apperr.ValidationError
		if !errors.As(err, &verr) || verr.Fields["image"] != "file is too large" {
			t.Fatalf("expected too large error, got %v", err)
		}
	})
}

func TestOptionalAbsent(t *testing.T) {
	run(t, multipartRequest(t, "", "", nil), func(c *gin.Context) {
		_, ok, err := Optional(c, "image", 1024)
		if err != nil || ok {
			t.Fatalf("expected absent file, got ok=%v err=%v", ok, err)
		}
	})
}
