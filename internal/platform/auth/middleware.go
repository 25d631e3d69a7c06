// Package auth validates bearer tokens issued by the external identity
// service and exposes the caller's identity (user id, RUN, role) to handlers.
// Token issuance, registration and password flows live outside this service.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Roles recognized on bearer tokens.
const (
	RolePatient = "paciente"
	RoleDoctor  = "medico"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	userRunKey  contextKey = "user_run"
	userRoleKey contextKey = "user_role"
)

// Claims carries the identity fields this service trusts from the token.
type Claims struct {
	jwt.RegisteredClaims
	Run  string `json:"run"`
	Role string `json:"tipo_usuario"`
}

// Identity is the verified caller identity attached to the request context.
type Identity struct {
	UserID string
	Run    string
	Role   string
}

// JWTMiddleware validates HS256 bearer tokens signed with secret and stores
// the caller identity on the request context.
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.Run == "" || claims.Role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing identity claims")
			}

			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), Identity{
				UserID: claims.Subject,
				Run:    claims.Run,
				Role:   claims.Role,
			})))
			return next(c)
		}
	}
}

// DevAuthMiddleware gives every request a fixed patient identity, or the one
// named by X-Dev-Run / X-Dev-Role headers. Development only.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			run := c.Request().Header.Get("X-Dev-Run")
			if run == "" {
				run = "11111111-1"
			}
			role := c.Request().Header.Get("X-Dev-Role")
			if role == "" {
				role = RolePatient
			}
			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), Identity{
				UserID: "dev-user",
				Run:    run,
				Role:   role,
			})))
			return next(c)
		}
	}
}

// WithIdentity returns a context carrying the verified caller identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, userIDKey, id.UserID)
	ctx = context.WithValue(ctx, userRunKey, id.Run)
	ctx = context.WithValue(ctx, userRoleKey, id.Role)
	return ctx
}

// IdentityFromContext returns the caller identity, zero-valued when the
// request was not authenticated.
func IdentityFromContext(ctx context.Context) Identity {
	uid, _ := ctx.Value(userIDKey).(string)
	run, _ := ctx.Value(userRunKey).(string)
	role, _ := ctx.Value(userRoleKey).(string)
	return Identity{UserID: uid, Run: run, Role: role}
}
