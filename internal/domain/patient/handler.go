package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/favodev/meditech/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/perfil", h.GetProfile)
	api.PATCH("/perfil", h.UpdateProfile)
}

func (h *Handler) GetProfile(c echo.Context) error {
	id := auth.IdentityFromContext(c.Request().Context())
	u, err := h.svc.GetProfile(c.Request().Context(), id.Run)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	id := auth.IdentityFromContext(c.Request().Context())
	var upd ProfileUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), id.Run, &upd)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "usuario no encontrado")
	case errors.Is(err, ErrInvalidRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
