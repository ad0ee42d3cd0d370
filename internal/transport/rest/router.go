package rest

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/user-directory/internal/analytics"
	"github.com/frahmantamala/user-directory/internal/auth"
	"github.com/frahmantamala/user-directory/internal/directory"
	"github.com/frahmantamala/user-directory/internal/transport/middleware"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, directoryHandler *directory.Handler, analyticsHandler *analytics.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if authHandler != nil {
			r.Post("/auth/login", authHandler.Login)
		}

		if directoryHandler != nil {
			// Read-only directory routes
			r.Get("/users/search", directoryHandler.SearchUsers)
			r.Get("/users/export", directoryHandler.ExportUsers)
			r.Get("/departments/{name}/users", directoryHandler.ListDepartmentUsers)
			r.Get("/reports/inactive-users", directoryHandler.InactiveUsersReport)

			// Mutating routes require a valid token so transfer audit rows
			// carry the caller's identity.
			r.Group(func(pr chi.Router) {
				if authHandler != nil {
					pr.Use(authHandler.AuthMiddleware)
				}
				pr.Post("/users", directoryHandler.CreateUser)
				pr.Post("/users/transfer", directoryHandler.TransferUser)
				pr.Post("/users/bulk/department", directoryHandler.BulkAssignDepartment)
				pr.Post("/users/bulk/active", directoryHandler.BulkSetActive)
			})
		}

		if analyticsHandler != nil {
			r.Route("/analytics", func(ar chi.Router) {
				ar.Get("/departments", analyticsHandler.DepartmentStats)
				ar.Get("/activity", analyticsHandler.UserActivityReport)
				ar.Get("/growth", analyticsHandler.MonthlyUserGrowth)
				ar.Get("/members", analyticsHandler.DepartmentMembers)
			})
		}
	})
}
