package report

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/favodev/meditech/internal/platform/auth"
	"github.com/favodev/meditech/pkg/pagination"
)

type Handler struct {
	svc   *Service
	stats *Stats
}

func NewHandler(svc *Service, stats *Stats) *Handler {
	return &Handler{svc: svc, stats: stats}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/informe", auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/estadisticas", h.Statistics)
	g.POST("/calcular-intervalo", h.IntervalTTR)
}

// Create handles the multipart report creation request: a `data` form value
// carrying the JSON DTO plus zero or more `files` parts.
func (h *Handler) Create(c echo.Context) error {
	caller := auth.IdentityFromContext(c.Request().Context())

	data := c.FormValue("data")
	if data == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing data field")
	}
	var dto CreateInput
	if err := json.Unmarshal([]byte(data), &dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed data field")
	}

	var files []File
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fh := range form.File["files"] {
			src, err := fh.Open()
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "unreadable file part")
			}
			content, err := io.ReadAll(src)
			src.Close()
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "unreadable file part")
			}
			files = append(files, File{Name: fh.Filename, Content: content})
		}
	}

	rep, err := h.svc.Create(c.Request().Context(), caller, dto, files)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rep)
}

func (h *Handler) List(c echo.Context) error {
	caller := auth.IdentityFromContext(c.Request().Context())
	pg := pagination.FromContext(c)

	items, total, err := h.svc.ListByPatient(c.Request().Context(), caller.Run, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Statistics(c echo.Context) error {
	caller := auth.IdentityFromContext(c.Request().Context())
	summary, err := h.stats.ClinicalSummary(c.Request().Context(), caller.Run)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

type intervalRequest struct {
	INRActual   float64 `json:"inr_actual"`
	RunPaciente string  `json:"run_paciente,omitempty"`
}

type intervalResponse struct {
	TTRIntervalo *float64 `json:"ttr_intervalo"`
	Mensaje      string   `json:"mensaje"`
}

// IntervalTTR previews the TTR of a reading that has not been saved yet.
// A doctor may name the patient; a patient always previews their own.
func (h *Handler) IntervalTTR(c echo.Context) error {
	caller := auth.IdentityFromContext(c.Request().Context())

	var req intervalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.INRActual <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "inr_actual must be positive")
	}

	run := caller.Run
	if caller.Role == auth.RoleDoctor && req.RunPaciente != "" {
		run = req.RunPaciente
	}

	ttr, err := h.stats.IntervalTTRPreview(c.Request().Context(), run, req.INRActual, time.Now())
	if err != nil {
		return httpError(err)
	}

	resp := intervalResponse{TTRIntervalo: ttr}
	if ttr == nil {
		resp.Mensaje = "sin control previo para comparar"
	} else {
		resp.Mensaje = "ttr del intervalo calculado"
	}
	return c.JSON(http.StatusOK, resp)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "rol no autorizado")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "informe no encontrado")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
