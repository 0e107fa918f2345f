package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type Handlers struct {
	Auth       AuthHandler
	Employee   EmployeeHandler
	Attendance AttendanceHandler
	Report     ReportHandler
	Dashboard  DashboardHandler
	Events     EventHandler
}

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// Health reports whether the backing store is reachable. Nil means always healthy.
	Health func(ctx context.Context) error
}

type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func NewRouter(jwtService jwt.Service, h Handlers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if opts.Health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Health(ctx); err != nil {
				slog.Error("Health check failed", "error", err)
				response.ServiceUnavailable(w, "Store unreachable")
				return
			}
		}
		response.Success(w, healthResponse{Status: "ok", Time: time.Now().UTC().Format(time.RFC3339)})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/token", h.Auth.Token)

		// EventSource authenticates with a short-lived query token
		r.Get("/events", h.Events.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService))

			r.Route("/auth", func(r chi.Router) {
				r.Get("/sse-token", h.Auth.SSEToken)
				r.Post("/logout", h.Auth.Logout)
			})

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.Employee.ListEmployees)
				r.Get("/{id}", h.Employee.GetEmployee)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(auth.RoleAdmin))
					r.Post("/", h.Employee.CreateEmployee)
					r.Put("/{id}", h.Employee.UpdateEmployee)
					r.Delete("/{id}", h.Employee.DeleteEmployee)
				})
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/check-in", h.Attendance.CheckIn)
				r.Post("/check-out", h.Attendance.CheckOut)
				r.Get("/", h.Attendance.List)
				r.Get("/status/{employeeID}", h.Attendance.GetStatus)
				r.Get("/not-checked-in", h.Attendance.NotCheckedIn)

				// Corrections bypass the check-in/check-out guards
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(auth.RoleAdmin))
					r.Post("/", h.Attendance.Mark)
					r.Post("/batch", h.Attendance.MarkBatch)
					r.Post("/auto-checkout", h.Attendance.Sweep)
				})
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/attendance-summary", h.Report.GetAttendanceSummary)
				r.Get("/employee-performance/{employeeID}", h.Report.GetEmployeePerformance)
				r.Get("/department", h.Report.GetDepartmentReport)
				r.Get("/dashboard", h.Report.GetDashboard)
				r.Get("/{type}/export", h.Report.Export)

				r.Route("/dashboard/refresh", func(r chi.Router) {
					r.Get("/", h.Dashboard.GetRefresh)
					r.Put("/", h.Dashboard.UpdateRefresh)
					r.Post("/now", h.Dashboard.RefreshNow)
				})
			})
		})
	})
	return r
}
