package report

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/favodev/meditech/internal/platform/auth"
)

func newTestHandler() (*Handler, *mockRepo, *mockProfiles) {
	svc, repo, profiles := newTestService()
	return NewHandler(svc, NewStats(repo, profiles)), repo, profiles
}

func withCaller(req *http.Request, id auth.Identity) *http.Request {
	return req.WithContext(auth.WithIdentity(context.Background(), id))
}

func multipartBody(t *testing.T, data string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("data", data); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		fw, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHandler_Create_Multipart(t *testing.T) {
	h, _, profiles := newTestHandler()
	profiles.configure(patientCaller.Run)
	e := echo.New()

	dto := `{"titulo":"Control INR","tipo_informe":"Control de Anticoagulación","run_medico":"22222222-2",` +
		`"contenido_clinico":{"inr_actual":2.5,"dosis_diaria":{"lunes":"1/2","martes":"1/2","miercoles":"1/2",` +
		`"jueves":"1/2","viernes":"1/2","sabado":"1/2","domingo":"1/2"}}}`
	body, contentType := multipartBody(t, dto, map[string][]byte{"resultado.pdf": []byte("pdf")})

	req := withCaller(httptest.NewRequest(http.MethodPost, "/informe", body), patientCaller)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	if err := h.Create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var rep Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.ContenidoClinico == nil || rep.ContenidoClinico.DosisSemanalTotalMg == nil ||
		*rep.ContenidoClinico.DosisSemanalTotalMg != 14.0 {
		t.Errorf("weekly dose not computed: %+v", rep.ContenidoClinico)
	}
	if len(rep.Archivos) != 1 || rep.Archivos[0].Tipo != TipoResultadoINR {
		t.Errorf("attachment not recorded: %+v", rep.Archivos)
	}
}

func TestHandler_Create_MissingDataField(t *testing.T) {
	h, _, _ := newTestHandler()
	e := echo.New()

	body, contentType := multipartBody(t, "", nil)
	req := withCaller(httptest.NewRequest(http.MethodPost, "/informe", body), patientCaller)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	err := h.Create(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_Create_ForbiddenRole(t *testing.T) {
	h, _, _ := newTestHandler()
	e := echo.New()

	body, contentType := multipartBody(t, `{"titulo":"x","tipo_informe":"Examen General","run_medico":"22222222-2"}`, nil)
	req := withCaller(httptest.NewRequest(http.MethodPost, "/informe", body), auth.Identity{Run: "x", Role: "admin"})
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	err := h.Create(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestHandler_List_OwnReportsOnly(t *testing.T) {
	h, repo, _ := newTestHandler()
	e := echo.New()

	seedControl(repo, patientCaller.Run, day(0), 2.5)
	seedControl(repo, "99999999-9", day(0), 2.5)

	req := withCaller(httptest.NewRequest(http.MethodGet, "/informe", nil), patientCaller)
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Data  []*Report `json:"data"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("expected 1 report, got %d", resp.Total)
	}
}

func TestHandler_Statistics(t *testing.T) {
	h, repo, _ := newTestHandler()
	e := echo.New()

	seedControl(repo, patientCaller.Run, day(0), 2.5)
	seedControl(repo, patientCaller.Run, day(10), 2.8)

	req := withCaller(httptest.NewRequest(http.MethodGet, "/informe/estadisticas", nil), patientCaller)
	rec := httptest.NewRecorder()
	if err := h.Statistics(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var summary ClinicalSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.TTRPorcentaje != 100 {
		t.Errorf("expected TTR 100, got %v", summary.TTRPorcentaje)
	}
}

func TestHandler_IntervalTTR_NoBaseline(t *testing.T) {
	h, _, _ := newTestHandler()
	e := echo.New()

	req := withCaller(httptest.NewRequest(http.MethodPost, "/informe/calcular-intervalo",
		strings.NewReader(`{"inr_actual":2.5}`)), patientCaller)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.IntervalTTR(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp intervalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TTRIntervalo != nil {
		t.Errorf("expected null interval TTR, got %v", *resp.TTRIntervalo)
	}
	if resp.Mensaje == "" {
		t.Error("expected explanatory message")
	}
}

func TestHandler_IntervalTTR_DoctorNamesPatient(t *testing.T) {
	h, repo, _ := newTestHandler()
	e := echo.New()

	seedControl(repo, patientCaller.Run, day(0), 2.5)

	req := withCaller(httptest.NewRequest(http.MethodPost, "/informe/calcular-intervalo",
		strings.NewReader(`{"inr_actual":2.8,"run_paciente":"`+patientCaller.Run+`"}`)), doctorCaller)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.IntervalTTR(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp intervalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TTRIntervalo == nil {
		t.Fatal("expected interval TTR value")
	}
}

func TestHandler_IntervalTTR_RejectsNonPositiveINR(t *testing.T) {
	h, _, _ := newTestHandler()
	e := echo.New()

	req := withCaller(httptest.NewRequest(http.MethodPost, "/informe/calcular-intervalo",
		strings.NewReader(`{"inr_actual":0}`)), patientCaller)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.IntervalTTR(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
