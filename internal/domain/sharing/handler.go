package sharing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/favodev/meditech/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the authenticated sharing endpoints on api and the
// anonymous viewer endpoint on public (no bearer token on that group).
func (h *Handler) RegisterRoutes(api *echo.Group, public *echo.Group) {
	g := api.Group("/permiso-compartir")
	g.POST("", h.CreateLegacy, auth.RequireRole(auth.RolePatient))
	g.POST("/formal", h.CreateFormal, auth.RequireRole(auth.RolePatient))
	g.PATCH("/:id", h.UpdateObservations, auth.RequireRole(auth.RolePatient))
	g.GET("/compartidos-conmigo", h.SharedWithMe, auth.RequireRole(auth.RoleDoctor))

	api.POST("/permiso-publico", h.CreatePublic, auth.RequireRole(auth.RolePatient))
	public.GET("/permiso-publico/ver", h.ViewPublic)
}

type formalCreateRequest struct {
	DoctorRun  string    `json:"doctorRun"`
	ReportID   uuid.UUID `json:"reportId"`
	ExpiryDays int       `json:"expiryDays"`
}

func (h *Handler) CreateFormal(c echo.Context) error {
	caller := auth.IdentityFromContext(c.Request().Context())

	var req formalCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	grant, err := h.svc.CreateFormalAccess(c.Request().Context(), caller.Run, req.DoctorRun, req.ReportID, req.ExpiryDays)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, grant)
}

func (h *Handler) CreateLegacy(c echo.Context) error {
	caller := auth.IdentityFromContext(c.Request().Context())

	var dto LegacyCreateInput
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	grant, err := h.svc.CreateLegacy(c.Request().Context(), caller.Run, dto)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, grant)
}

type observationsUpdateRequest struct {
	Observaciones string `json:"observaciones"`
}

func (h *Handler) UpdateObservations(c echo.Context) error {
	caller := auth.IdentityFromContext(c.Request().Context())

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid grant id")
	}
	var req observationsUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	grant, err := h.svc.UpdateGrantObservations(c.Request().Context(), caller.Run, id, req.Observaciones)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, grant)
}

func (h *Handler) SharedWithMe(c echo.Context) error {
	caller := auth.IdentityFromContext(c.Request().Context())

	grants, err := h.svc.SharedWithDoctor(c.Request().Context(), caller.Run)
	if err != nil {
		return httpError(err)
	}
	if grants == nil {
		grants = []*FormalGrant{}
	}
	return c.JSON(http.StatusOK, grants)
}

func (h *Handler) CreatePublic(c echo.Context) error {
	caller := auth.IdentityFromContext(c.Request().Context())

	var dto PublicCreateInput
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.CreatePublicShare(c.Request().Context(), caller.Run, dto)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) ViewPublic(c echo.Context) error {
	snap, err := h.svc.ResolvePublicShare(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
