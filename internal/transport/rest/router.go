package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/credit"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/frahmantamala/leave-management/internal/leavetype"
	"github.com/frahmantamala/leave-management/internal/ledger"
	"github.com/frahmantamala/leave-management/internal/storage"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/frahmantamala/leave-management/internal/transport/swagger"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	LeaveTypes  *leavetype.Handler
	Calendar    *calendar.Handler
	Balances    *ledger.Handler
	Leaves      *leave.Handler
	Credits     *credit.Handler
	Attachments *storage.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authMW *auth.Middleware, h Handlers, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/leaves", func(lr chi.Router) {
			lr.Use(authMW.RequireActor)

			// Leave type catalogue
			lr.Route("/types", func(tr chi.Router) {
				tr.Get("/", h.LeaveTypes.ListTypes)
				tr.Get("/{id}", h.LeaveTypes.GetType)

				tr.Group(func(ar chi.Router) {
					ar.Use(authMW.RequireRole(internal.RoleSuperAdmin))
					ar.Post("/", h.LeaveTypes.CreateType)
					ar.Put("/{id}", h.LeaveTypes.UpdateType)
					ar.Delete("/{id}", h.LeaveTypes.DeleteType)
				})
			})

			// Holiday calendar
			lr.Route("/holidays", func(hr chi.Router) {
				hr.Get("/", h.Calendar.ListHolidays)

				hr.Group(func(ar chi.Router) {
					ar.Use(authMW.RequireRole(internal.RoleHRAdmin, internal.RoleSuperAdmin))
					ar.Post("/", h.Calendar.CreateHoliday)
					ar.Put("/{id}", h.Calendar.UpdateHoliday)
					ar.Delete("/{id}", h.Calendar.DeleteHoliday)
				})
			})

			// Balances
			lr.Route("/balances", func(br chi.Router) {
				br.Get("/my", h.Balances.MyBalances)
				br.Get("/team", h.Balances.TeamBalances)
				br.Get("/all", h.Balances.AllBalances)
			})

			// Applications
			lr.Post("/apply", h.Leaves.Apply)
			lr.Route("/applications", func(ar chi.Router) {
				ar.Get("/my", h.Leaves.MyApplications)
				ar.Get("/team", h.Leaves.TeamApplications)
				ar.Get("/all", h.Leaves.AllApplications)
				ar.Get("/{id}", h.Leaves.GetApplication)
				ar.Put("/{id}", h.Leaves.UpdateApplication)
				ar.Delete("/{id}", h.Leaves.CancelApplication)
				ar.Get("/{id}/logs", h.Leaves.ApprovalTrail)
				ar.Post("/{id}/approve", h.Leaves.ApproveApplication)
				ar.Post("/{id}/reject", h.Leaves.RejectApplication)
				ar.Post("/{id}/recall", h.Leaves.RecallApplication)
			})

			lr.Get("/approvals/pending", h.Leaves.PendingApprovals)
			lr.Get("/stats", h.Leaves.Stats)

			// Attachments
			lr.Post("/attachments", h.Attachments.Upload)
			lr.Get("/attachments/{name}", h.Attachments.Download)

			// Compensatory credits
			lr.Route("/credits", func(cr chi.Router) {
				cr.Post("/", h.Credits.RequestCredit)
				cr.Get("/my", h.Credits.MyRequests)
				cr.Get("/pending", h.Credits.PendingRequests)
				cr.Post("/{id}/approve", h.Credits.ApproveCredit)
				cr.Post("/{id}/reject", h.Credits.RejectCredit)
			})
		})
	})
}
