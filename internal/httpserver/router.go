package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func newRouter(logger *zap.Logger, svc Service, organization, project string) http.Handler {
	h := &handler{
		svc:          svc,
		logger:       logger,
		organization: organization,
		project:      project,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(zapRequestLogger(logger))

	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/repositories", h.handleRepositories)

		r.Get("/commits", h.handleCommits)
		r.Get("/commits/analytics/{repositoryID}", h.handleCommitAnalytics)

		r.Get("/work-items", h.handleWorkItems)
		r.Get("/work-items/analytics", h.handleWorkItemAnalytics)

		r.Get("/pull-requests/{repositoryID}", h.handlePullRequests)

		r.Get("/team-members", h.handleTeamMembers)

		r.Get("/sprints", h.handleSprints)
		r.Get("/sprints/current", h.handleCurrentSprint)

		r.Post("/sync", h.handleSync)
		r.Delete("/cache", h.handleClearCache)
	})

	return r
}

func zapRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info(
				"http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
