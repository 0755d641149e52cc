package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "arvaiapulse/internal/errors"
	"arvaiapulse/internal/middleware"
	"arvaiapulse/internal/services"
	"arvaiapulse/pkg/contracts/domain"
)

type contextKey string

const dashboardRequestKey contextKey = "dashboard_request"

// dashboardRequest is what DashboardCtx stores for the route handlers
type dashboardRequest struct {
	snapshot  services.Snapshot
	selection domain.Selection
}

// DashboardHandler serves the dashboard projections
type DashboardHandler struct {
	service      *services.DashboardService
	insights     InsightsProvider
	validator    *middleware.ValidationMiddleware
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	service *services.DashboardService,
	insights InsightsProvider,
	validator *middleware.ValidationMiddleware,
	errorHandler *apierrors.ErrorHandler,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		insights:     insights,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "dashboard")),
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/insights", h.GetInsights)

	r.Group(func(r chi.Router) {
		r.Use(h.DashboardCtx)
		r.Get("/", h.GetDashboard)
		r.Get("/annual", h.GetAnnual)
		r.Get("/weekly", h.GetWeekly)
		r.Get("/highlight", h.GetHighlight)
		r.Get("/products", h.GetProducts)
		r.Get("/weeks", h.GetWeeks)
	})
	return r
}

// selection parses and validates the dashboard query of r
func (h *DashboardHandler) selection(r *http.Request) (domain.Selection, error) {
	q, err := parseDashboardQuery(r)
	if err != nil {
		return domain.Selection{}, err
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		return domain.Selection{}, err
	}
	return q.Selection(), nil
}

// DashboardCtx validates the filter, pins one dataset snapshot for the
// request and answers conditional requests.
func (h *DashboardHandler) DashboardCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sel, err := h.selection(r)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		snap, err := h.service.Snapshot(r.Context())
		if err != nil {
			h.errorHandler.HandleError(w, r, toAPIError(err))
			return
		}

		etag := quoteETag(snap.Info.Checksum)
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		ctx := context.WithValue(r.Context(), dashboardRequestKey, dashboardRequest{
			snapshot:  snap,
			selection: sel,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestFrom(r *http.Request) dashboardRequest {
	req, _ := r.Context().Value(dashboardRequestKey).(dashboardRequest)
	return req
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	req := requestFrom(r)
	render.JSON(w, r, h.service.View(req.snapshot, req.selection))
}

// GetAnnual handles GET /api/dashboard/annual
func (h *DashboardHandler) GetAnnual(w http.ResponseWriter, r *http.Request) {
	req := requestFrom(r)
	render.JSON(w, r, map[string]interface{}{
		"selection": req.selection,
		"annual":    h.service.Annual(req.snapshot, req.selection),
	})
}

// GetWeekly handles GET /api/dashboard/weekly. Without a week the list is empty.
func (h *DashboardHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	req := requestFrom(r)
	rows := h.service.Weekly(req.snapshot, req.selection)
	if rows == nil {
		rows = []domain.WeeklyProductRow{}
	}
	render.JSON(w, r, map[string]interface{}{
		"selection": req.selection,
		"rows":      rows,
	})
}

// GetHighlight handles GET /api/dashboard/highlight
func (h *DashboardHandler) GetHighlight(w http.ResponseWriter, r *http.Request) {
	req := requestFrom(r)
	render.JSON(w, r, h.service.Highlight(req.snapshot, req.selection))
}

// GetProducts handles GET /api/dashboard/products
func (h *DashboardHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products := h.service.Products(requestFrom(r).snapshot)
	if products == nil {
		products = []string{}
	}
	render.JSON(w, r, map[string]interface{}{"products": products})
}

// GetWeeks handles GET /api/dashboard/weeks
func (h *DashboardHandler) GetWeeks(w http.ResponseWriter, r *http.Request) {
	weeks := h.service.Weeks(requestFrom(r).snapshot)
	if weeks == nil {
		weeks = []domain.WeekOption{}
	}
	render.JSON(w, r, map[string]interface{}{"weeks": weeks})
}

// GetInsights handles GET /api/dashboard/insights
func (h *DashboardHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	summary, err := h.insights.Summarize(r.Context(), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}
	render.JSON(w, r, map[string]string{"summary": summary})
}
