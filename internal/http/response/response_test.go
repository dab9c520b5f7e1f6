package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/inkforge-backend/internal/platform/apierr"
)

func render(t *testing.T, err error) (int, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondAPIError(c, err)
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, env
}

func TestRespondAPIError_HidesFailureCause(t *testing.T) {
	code, env := render(t, apierr.Failure("storage_failure", "could not save changes", errors.New("pq: relation missing")))
	if code != http.StatusInternalServerError {
		t.Fatalf("status=%d", code)
	}
	if env.Error.Message != "could not save changes" || env.Error.Code != "storage_failure" || !env.Error.Retryable {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestRespondAPIError_Validation(t *testing.T) {
	code, env := render(t, apierr.BadRequest("missing_fields", "document_id is required"))
	if code != http.StatusBadRequest || env.Error.Retryable || env.Error.Code != "missing_fields" {
		t.Fatalf("unexpected %d %+v", code, env)
	}
}

func TestRespondAPIError_UnknownError(t *testing.T) {
	code, env := render(t, errors.New("boom"))
	if code != http.StatusInternalServerError || env.Error.Message != "internal error" {
		t.Fatalf("unexpected %d %+v", code, env)
	}
}

func TestErrorCode_SetOnlyForErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	RespondOK(c, gin.H{"ok": true})
	if code, ok := ErrorCode(c); ok {
		t.Fatalf("success must not carry an error code, got %q", code)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	RespondAPIError(c, apierr.BadRequest("missing_fields", "content is required"))
	if code, ok := ErrorCode(c); !ok || code != "missing_fields" {
		t.Fatalf("expected missing_fields, got %q %v", code, ok)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	RespondAPIError(c, errors.New("boom"))
	if code, _ := ErrorCode(c); code != "internal" {
		t.Fatalf("expected internal, got %q", code)
	}
}
