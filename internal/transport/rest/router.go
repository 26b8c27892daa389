package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/civicworks/revenue-tracker/internal/attachment"
	"github.com/civicworks/revenue-tracker/internal/auth"
	"github.com/civicworks/revenue-tracker/internal/budget"
	"github.com/civicworks/revenue-tracker/internal/expenditure"
	"github.com/civicworks/revenue-tracker/internal/export"
	"github.com/civicworks/revenue-tracker/internal/mda"
	"github.com/civicworks/revenue-tracker/internal/notification"
	"github.com/civicworks/revenue-tracker/internal/retirement"
	"github.com/civicworks/revenue-tracker/internal/transport/metrics"
	"github.com/civicworks/revenue-tracker/internal/transport/middleware"
	"github.com/civicworks/revenue-tracker/internal/transport/swagger"
	"github.com/civicworks/revenue-tracker/internal/user"
	"github.com/civicworks/revenue-tracker/internal/workflow"
	"github.com/go-chi/chi"
)

// Handlers bundles every feature handler the router mounts.
type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	MDA          *mda.Handler
	Budget       *budget.Handler
	Expenditure  *expenditure.Handler
	Workflow     *workflow.Handler
	Retirement   *retirement.Handler
	Attachment   *attachment.Handler
	Notification *notification.Handler
	Export       *export.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)
	rbac := auth.NewRBACAuthorization(logger)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(metrics.Middleware)

	router.Handle("/metrics", metrics.Handler())
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Everything below requires a valid access token.
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/users/me", h.User.Me)
			pr.Group(func(ur chi.Router) {
				ur.Use(rbac.Require(auth.PermManageUsers))
				ur.Get("/users", h.User.ListUsers)
				ur.Post("/users", h.User.CreateUser)
				ur.Get("/users/{id}", h.User.GetUser)
				ur.Patch("/users/{id}", h.User.UpdateUser)
			})

			pr.Route("/mdas", func(mr chi.Router) {
				mr.Get("/", h.MDA.ListMDAs)
				mr.Get("/{id}", h.MDA.GetMDA)
				mr.Group(func(ar chi.Router) {
					ar.Use(rbac.Require(auth.PermManageMDAs))
					ar.Post("/", h.MDA.CreateMDA)
					ar.Patch("/{id}", h.MDA.UpdateMDA)
					ar.Delete("/{id}", h.MDA.DeactivateMDA)
				})
			})

			pr.Route("/budgets", func(br chi.Router) {
				br.Get("/", h.Budget.ListBudgets)
				br.Get("/{id}", h.Budget.GetBudget)
				br.Get("/{id}/line-items", h.Budget.ListLineItems)

				br.Group(func(mr chi.Router) {
					mr.Use(rbac.Require(auth.PermManageBudgets))
					mr.Post("/", h.Budget.CreateBudget)
					mr.Post("/{id}/line-items", h.Budget.AddLineItem)
				})

				br.Group(func(sr chi.Router) {
					sr.Use(rbac.Require(auth.PermSubmitBudgets))
					sr.Post("/{id}/submit", h.Workflow.Submit(workflow.KindBudget))
				})
				br.Group(func(ar chi.Router) {
					ar.Use(rbac.Require(auth.PermApproveBudgets))
					ar.Post("/{id}/approve", h.Workflow.Approve(workflow.KindBudget))
				})
				br.Group(func(rr chi.Router) {
					rr.Use(rbac.Require(auth.PermRejectBudgets))
					rr.Post("/{id}/reject", h.Workflow.Reject(workflow.KindBudget))
				})
				br.Group(func(pbr chi.Router) {
					pbr.Use(rbac.Require(auth.PermPublishBudgets))
					pbr.Post("/{id}/publish", h.Budget.PublishBudget)
				})

				br.Get("/{id}/history", h.Workflow.HistoryList(workflow.KindBudget))
			})

			pr.Get("/line-items/{id}/utilization", h.Budget.GetUtilization)

			pr.Route("/expenditures", func(er chi.Router) {
				er.Get("/", h.Expenditure.ListExpenditures)
				er.Get("/{id}", h.Expenditure.GetExpenditure)
				er.Post("/", h.Expenditure.CreateExpenditure)

				er.Group(func(sr chi.Router) {
					sr.Use(rbac.Require(auth.PermSubmitExpenditures))
					sr.Post("/{id}/submit", h.Workflow.Submit(workflow.KindExpenditure))
				})
				er.Group(func(ar chi.Router) {
					ar.Use(rbac.Require(auth.PermApproveExpenditures))
					ar.Post("/{id}/approve", h.Workflow.Approve(workflow.KindExpenditure))
				})
				er.Group(func(rr chi.Router) {
					rr.Use(rbac.Require(auth.PermRejectExpenditures))
					rr.Post("/{id}/reject", h.Workflow.Reject(workflow.KindExpenditure))
				})

				er.Get("/{id}/history", h.Workflow.HistoryList(workflow.KindExpenditure))
				er.Post("/{id}/attachments", h.Attachment.Upload(attachment.OwnerExpenditure))
				er.Get("/{id}/attachments", h.Attachment.ListByOwner(attachment.OwnerExpenditure))
			})

			pr.Group(func(vr chi.Router) {
				vr.Use(rbac.Require(auth.PermVerifyAttachments))
				vr.Patch("/attachments/{id}/verify", h.Attachment.Verify)
			})

			pr.Route("/retirements", func(rr chi.Router) {
				rr.Get("/", h.Retirement.ListRetirements)
				rr.Post("/", h.Retirement.CreateRetirement)
				rr.Get("/{id}", h.Retirement.GetRetirement)
				rr.Patch("/{id}", h.Retirement.UpdateRetirement)
				rr.Post("/{id}/submit", h.Retirement.SubmitRetirement)
				rr.Post("/{id}/attachments", h.Attachment.Upload(attachment.OwnerRetirement))
				rr.Get("/{id}/attachments", h.Attachment.ListByOwner(attachment.OwnerRetirement))

				rr.Group(func(wr chi.Router) {
					wr.Use(rbac.Require(auth.PermReviewRetirements))
					wr.Post("/{id}/review", h.Retirement.ReviewRetirement)
					wr.Post("/{id}/approve", h.Retirement.ApproveRetirement)
					wr.Post("/{id}/reject", h.Retirement.RejectRetirement)
					wr.Post("/{id}/complete", h.Retirement.CompleteRetirement)
				})
			})

			pr.Get("/approval-history", h.Workflow.HistoryQuery)

			pr.Get("/notifications", h.Notification.ListNotifications)
			pr.Patch("/notifications/{id}/read", h.Notification.MarkRead)

			pr.Group(func(rr chi.Router) {
				rr.Use(rbac.Require(auth.PermViewReports))
				rr.Get("/reports/budget-performance", h.Export.BudgetPerformance)
			})
		})
	})
}
