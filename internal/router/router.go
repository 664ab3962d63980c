package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"recipeshare/internal/handler"
)

// RegisterRoutes sets up the middleware shared by every route.  All
// responses permit any origin and the standard verb set, and a health
// check lives at /healthz for load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodOptions,
			http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, "X-Requested-With",
		},
	}))
	e.GET("/healthz", handler.Health)
}

// RegisterUsers registers the user endpoints.  Registration, login, the
// user directory and single-user lookup are unauthenticated; session and
// profile operations sit behind the auth guard.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, auth, cache echo.MiddlewareFunc) {
	e.POST("/users", h.Register)
	e.GET("/users", h.List)
	e.POST("/users/login", h.Login)

	e.GET("/users/me", h.Me, auth)
	e.GET("/users/me/bookmarks", h.ListBookmarks, auth, cache)
	e.PATCH("/users/me", h.UpdateSelf, auth)
	e.POST("/users/logout", h.Logout, auth)
	e.POST("/users/logoutAll", h.LogoutAll, auth)

	// Registered after the /users/me routes; Echo still matches static
	// segments before the :id parameter.
	e.GET("/users/:id", h.GetByID)
}

// RegisterRecipes registers the recipe endpoints.  All of them require a
// valid session; listings additionally go through the response cache.
func RegisterRecipes(e *echo.Echo, h *handler.RecipeHandler, auth, cache echo.MiddlewareFunc) {
	e.POST("/recipes", h.Create, auth)
	e.GET("/recipes", h.List, auth, cache)
	e.GET("/recipes/search", h.Search, auth, cache)
	e.GET("/recipes/:id", h.GetByID, auth)
	e.PATCH("/recipes/:id", h.Update, auth)
}
