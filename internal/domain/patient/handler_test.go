package patient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/favodev/meditech/internal/platform/auth"
)

func newTestContext(e *echo.Echo, method, body, run, role string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/perfil", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, "/perfil", nil)
	}
	ctx := auth.WithIdentity(context.Background(), auth.Identity{Run: run, Role: role})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_GetProfile(t *testing.T) {
	repo := newMockRepo()
	seedPatient(repo, "11111111-1")
	h := NewHandler(NewService(repo))
	e := echo.New()

	c, rec := newTestContext(e, http.MethodGet, "", "11111111-1", auth.RolePatient)
	if err := h.GetProfile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var u User
	if err := json.Unmarshal(rec.Body.Bytes(), &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.Run != "11111111-1" {
		t.Errorf("unexpected run: %s", u.Run)
	}
}

func TestHandler_GetProfile_NotFound(t *testing.T) {
	h := NewHandler(NewService(newMockRepo()))
	e := echo.New()

	c, _ := newTestContext(e, http.MethodGet, "", "99999999-9", auth.RolePatient)
	err := h.GetProfile(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_UpdateProfile(t *testing.T) {
	repo := newMockRepo()
	seedPatient(repo, "11111111-1")
	h := NewHandler(NewService(repo))
	e := echo.New()

	body := `{"datos_anticoagulacion":{"medicamento":"Warfarina","rango_meta":{"min":2.5,"max":3.5}}}`
	c, rec := newTestContext(e, http.MethodPatch, body, "11111111-1", auth.RolePatient)
	if err := h.UpdateProfile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var u User
	if err := json.Unmarshal(rec.Body.Bytes(), &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.Anticoagulacion == nil || u.Anticoagulacion.RangoMeta.Max != 3.5 {
		t.Errorf("profile not updated: %+v", u.Anticoagulacion)
	}
}

func TestHandler_UpdateProfile_InvalidRange(t *testing.T) {
	repo := newMockRepo()
	seedPatient(repo, "11111111-1")
	h := NewHandler(NewService(repo))
	e := echo.New()

	body := `{"datos_anticoagulacion":{"medicamento":"Warfarina","rango_meta":{"min":3.0,"max":2.0}}}`
	c, _ := newTestContext(e, http.MethodPatch, body, "11111111-1", auth.RolePatient)
	err := h.UpdateProfile(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
