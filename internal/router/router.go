package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/handler"
	"github.com/tasksur/tasksur/internal/middleware"
	"github.com/tasksur/tasksur/internal/model"
)

// RegisterRoutes registers routes that require no authentication.
// Currently that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the account endpoints. Register, login and
// refresh are open; the current-user endpoint sits behind the token
// middleware. Logout takes the lenient variant so a bearer token
// alone is enough to revoke every session while a refresh token in
// the body still works without one.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth, optionalAuth echo.MiddlewareFunc) {
	e.POST("/api/register", a.Register)
	e.POST("/api/auth/login", a.Login)
	e.POST("/api/auth/refresh", a.Refresh)
	e.POST("/api/auth/logout", a.Logout, optionalAuth)
	e.GET("/api/auth/user", a.Me, auth)
}

// RegisterTasks wires the task endpoints. Reads are public so guests
// can browse the marketplace; the listing optionally sits behind the
// response cache. Mutations require a token, and updates and deletes
// additionally pass the ownership check.
func RegisterTasks(e *echo.Echo, h *handler.TaskHandler, tasks middleware.TaskGetter, auth echo.MiddlewareFunc, cache echo.MiddlewareFunc) {
	list := []echo.MiddlewareFunc{}
	if cache != nil {
		list = append(list, cache)
	}
	e.GET("/api/tasks", h.List, list...)
	e.GET("/api/tasks/:id", h.Get)

	g := e.Group("/api/tasks", auth)
	g.POST("", h.Create)
	g.PATCH("/:id", h.Update, middleware.CanModifyTask(tasks))
	g.DELETE("/:id", h.Delete, middleware.CanModifyTask(tasks))
}

// RegisterOffers wires the offer endpoints. Creating an offer is for
// taskers (and admins); deciding one is for the task's client while
// the task is still open, which CanModifyOffer enforces after
// resolving the offer's task.
func RegisterOffers(e *echo.Echo, h *handler.OfferHandler, offers handler.OfferStore, tasks middleware.TaskGetter, auth echo.MiddlewareFunc) {
	taskOf := func(c echo.Context) (string, error) {
		o, err := offers.GetByID(c.Request().Context(), c.Param("id"))
		if err != nil {
			return "", err
		}
		return o.TaskID, nil
	}

	e.POST("/api/offers", h.Create, auth, middleware.RequireRole(model.RoleTasker, model.RoleAdmin))
	e.GET("/api/tasks/:id/offers", h.ListByTask, auth)
	e.GET("/api/users/:id/offers", h.ListByTasker, auth)
	e.PATCH("/api/offers/:id", h.UpdateStatus, auth, middleware.CanModifyOffer(tasks, taskOf))
}

// RegisterCategories wires the category endpoints. Reads are public;
// mutations are admin only.
func RegisterCategories(e *echo.Echo, h *handler.CategoryHandler, auth echo.MiddlewareFunc) {
	e.GET("/api/categories", h.List)
	e.GET("/api/categories/:id", h.Get)

	admin := e.Group("/api/categories", auth, middleware.RequireRole(model.RoleAdmin))
	admin.POST("", h.Create)
	admin.PATCH("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
}

// RegisterUsers wires profiles, stats, reviews and account deletion.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, auth echo.MiddlewareFunc) {
	g := e.Group("/api/users", auth)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/stats", h.Stats)
	g.GET("/:id/reviews", h.ListReviews)

	e.POST("/api/reviews", h.CreateReview, auth)
}

// RegisterMessages wires task conversations and direct messages. The
// task-scoped routes pass the participant check.
func RegisterMessages(e *echo.Echo, h *handler.MessageHandler, tasks middleware.TaskGetter, auth echo.MiddlewareFunc) {
	access := middleware.CanAccessTaskMessages(tasks)
	e.GET("/api/tasks/:id/messages", h.ListByTask, auth, access)
	e.POST("/api/tasks/:id/messages", h.CreateForTask, auth, access)

	e.POST("/api/messages", h.CreateDirect, auth)
	e.PATCH("/api/messages/:id/read", h.MarkRead, auth)
}

// RegisterNotifications wires the requester-scoped notification feed.
func RegisterNotifications(e *echo.Echo, h *handler.NotificationHandler, auth echo.MiddlewareFunc) {
	g := e.Group("/api/notifications", auth)
	g.GET("", h.List)
	g.PATCH("/:id/read", h.MarkRead)
	g.PATCH("/read-all", h.MarkAllRead)
}

// RegisterPayments wires the payment ledger and the PayPal proxy.
func RegisterPayments(e *echo.Echo, h *handler.PaymentHandler, pp *handler.PayPalHandler, auth echo.MiddlewareFunc) {
	g := e.Group("/api/payments", auth)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.PATCH("/:orderId/status", h.UpdateStatus)

	paypal := e.Group("/api/paypal", auth)
	paypal.GET("/setup", pp.Setup)
	paypal.POST("/order", pp.CreateOrder)
	paypal.POST("/order/:orderID/capture", pp.CaptureOrder)
}
