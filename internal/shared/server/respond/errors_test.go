package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"urs-backend/internal/shared/apperr"
)

func TestFromErrorMapsTaxonomy(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "authorization", err: apperr.Forbidden("admins only"), wantCode: http.StatusForbidden, wantBody: "forbidden"},
		{name: "validation", err: apperr.Invalid("reason", "reason is required"), wantCode: http.StatusUnprocessableEntity, wantBody: "validation_error"},
		{name: "precondition", err: apperr.Precondition("not approved"), wantCode: http.StatusConflict, wantBody: "precondition_failed"},
		{name: "not found wrapped", err: fmt.Errorf("load: %w", apperr.NotFound("request")), wantCode: http.StatusNotFound, wantBody: "not_found"},
		{name: "external", err: apperr.External("object storage", errors.New("timeout")), wantCode: http.StatusBadGateway, wantBody: "external_service_error"},
		{name: "unknown", err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantBody: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) { FromError(c, tt.err) })

			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

			if resp.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, resp.Code)
			}
			var body ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.wantBody {
				t.Fatalf("expected code %s, got %s", tt.wantBody, body.Error.Code)
			}
		})
	}
}

func TestFromErrorValidationDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		FromError(c, apperr.Invalid("endDate", "end date must be today or later"))
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	var body struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Details["endDate"] != "end date must be today or later" {
		t.Fatalf("unexpected details: %+v", body.Error.Details)
	}
}
