package storage

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handler serves files addressed by signed URLs minted by an InMemoryStore.
type Handler struct {
	store *InMemoryStore
}

func NewHandler(store *InMemoryStore) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/files/*", h.ServeFile)
}

// ServeFile validates the signature and expiry on the request and streams
// the file. The filename query parameter, when present, forces a download.
func (h *Handler) ServeFile(c echo.Context) error {
	path := c.Param("*")
	sig := c.QueryParam("sig")
	expires, err := strconv.ParseInt(c.QueryParam("expires"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid expires parameter")
	}

	data, err := h.store.Open(path, sig, expires)
	switch {
	case errors.Is(err, ErrInvalidSignature):
		return echo.NewHTTPError(http.StatusForbidden, "invalid signature")
	case errors.Is(err, ErrLinkExpired):
		return echo.NewHTTPError(http.StatusForbidden, "link expired")
	case errors.Is(err, ErrFileNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if name := c.QueryParam("filename"); name != "" {
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=%q", name))
	}
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, data)
}
