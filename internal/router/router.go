package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-table-reservation/internal/handler"
    "github.com/iliyamo/restaurant-table-reservation/internal/middleware"
    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
// The cache middleware may be nil when Redis is unavailable.
func RegisterRoutes(e *echo.Echo, cache echo.MiddlewareFunc) {
    e.GET("/healthz", handler.Health, middlewares(cache)...)
}

// middlewares filters out nil entries so route registration can take
// optional middleware.
func middlewares(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
    out := make([]echo.MiddlewareFunc, 0, len(mws))
    for _, mw := range mws {
        if mw != nil {
            out = append(out, mw)
        }
    }
    return out
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // rotates the refresh token
    g.POST("/refresh", a.Refresh)
    // issues a new access token without rotating the refresh token
    g.POST("/refresh-access", a.RefreshAccess)
    // logout does not require JWT authentication; it accepts either a
    // bearer token (revoke all sessions) or a refresh_token body
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole(model.RoleOwner, model.RoleStaff, model.RoleCustomer))
    auth.GET("/me", a.Me)

    // also reachable outside /v1/auth for clients that keep the old path
    e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints: the open
// service windows and the availability probe.  No JWT or role
// middleware applies so guests can check before creating an account.
// These are the only routes that take the shared response cache: the
// cache key carries no caller identity, so it must never sit in front
// of an authenticated route.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
    mws := middlewares(cache)
    e.GET("/v1/slots", p.ListSlots, mws...)
    e.GET("/v1/availability", p.CheckAvailability, mws...)
}
