package upload

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"urs-backend/internal/extract"
	"urs-backend/internal/shared/apperr"
)

// File is a multipart upload read fully into memory.
type File struct {
	Name string
	Data []byte
}

// FromForm reads the named multipart field, enforcing max bytes.
// Failures are returned as validation errors on field.
func FromForm(c *gin.Context, field string, max int64) (File, error) {
	f, ok, err := read(c, field, max)
	if err != nil {
		return File{}, err
	}
	if !ok {
		return File{}, apperr.Invalid(field, "file is required")
	}
	return f, nil
}

// Optional is FromForm for fields that may be omitted; ok is false when absent.
func Optional(c *gin.Context, field string, max int64) (File, bool, error) {
	return read(c, field, max)
}

func read(c *gin.Context, field string, max int64) (File, bool, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return File{}, false, nil
		}
		return File{}, false, apperr.Invalid(field, "unable to read upload")
	}
	if fileHeader.Size > max {
		return File{}, false, apperr.Invalid(field, "file is too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return File{}, false, apperr.Invalid(field, "unable to read file")
	}
	defer file.Close()

	data, err := extract.ReadLimited(file, max)
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrTooLarge):
			return File{}, false, apperr.Invalid(field, "file is too large")
		case errors.Is(err, extract.ErrEmpty):
			return File{}, false, apperr.Invalid(field, "file is empty")
		default:
			return File{}, false, apperr.Invalid(field, "unable to read file")
		}
	}
	return File{Name: fileHeader.Filename, Data: data}, true, nil
}

// LimitBody caps the request body so oversized multipart posts fail early.
func LimitBody(c *gin.Context, max int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
}
