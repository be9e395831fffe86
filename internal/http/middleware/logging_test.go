// README: Tests for the request log line.
package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"sahayog/internal/http/middleware"
	"sahayog/internal/infra"
)

func TestLogging_IncludesCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	identity := &infra.Identity{UID: "d1", Claims: map[string]interface{}{"role": "driver"}}
	r := gin.New()
	r.Use(middleware.Logging(log), middleware.Auth(&stubVerifier{identity: identity}))
	r.GET("/rides", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/rides", nil)
	req.Header.Set("Authorization", "Bearer token")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["uid"] != "d1" || line["role"] != "driver" {
		t.Fatalf("expected uid and role in log line, got %v", line)
	}
	if line["route"] != "/rides" || line["status"] != float64(http.StatusOK) {
		t.Fatalf("unexpected request attrs %v", line)
	}
}

func TestLogging_AnonymousOmitsCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(middleware.Logging(log))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if _, ok := line["role"]; ok {
		t.Fatalf("anonymous request must not log a role, got %v", line)
	}
}
