package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/favodev/meditech/internal/platform/auth"
)

func TestRecovery_PanicBecomes500(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/informe", nil), rec)

	h := Recovery(zerolog.New(&buf))(func(c echo.Context) error {
		panic("boom")
	})
	err := h(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "boom") || !strings.Contains(out, "/informe") {
		t.Errorf("log missing panic value or path: %s", out)
	}
}

func TestRecovery_LogsCallerIdentity(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/perfil", nil)
	req = req.WithContext(auth.WithIdentity(context.Background(), auth.Identity{
		Run: "11111111-1", Role: auth.RolePatient,
	}))
	c := e.NewContext(req, httptest.NewRecorder())

	h := Recovery(zerolog.New(&buf))(func(c echo.Context) error {
		panic("boom")
	})
	_ = h(c)

	out := buf.String()
	if !strings.Contains(out, `"run":"11111111-1"`) || !strings.Contains(out, `"role":"paciente"`) {
		t.Errorf("log missing caller identity: %s", out)
	}
}

func TestRecovery_PassesThroughWithoutPanic(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), httptest.NewRecorder())

	h := Recovery(zerolog.New(&buf))(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no log output, got %s", buf.String())
	}
}
