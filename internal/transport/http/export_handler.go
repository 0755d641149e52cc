package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "arvaiapulse/internal/errors"
	"arvaiapulse/internal/middleware"
)

// ExportRequest names the download format
type ExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv xlsx"`
}

// ExportHandler serves CSV and XLSX downloads of the dashboard tables
type ExportHandler struct {
	service      ExportPreparer
	validator    *middleware.ValidationMiddleware
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(
	service ExportPreparer,
	validator *middleware.ValidationMiddleware,
	errorHandler *apierrors.ErrorHandler,
	logger *slog.Logger,
) *ExportHandler {
	return &ExportHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "export")),
	}
}

// Routes returns the export routes
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{format}", h.Download)
	return r
}

// Download handles GET /api/export/{format}
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	req := ExportRequest{Format: chi.URLParam(r, "format")}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	q, err := parseDashboardQuery(r)
	if err == nil {
		err = h.validator.ValidateStruct(q)
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	export, err := h.service.Prepare(r.Context(), req.Format, q.Selection())
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}

	// Render fully before sending headers so a failure is still a problem response.
	var buf bytes.Buffer
	if err := export.WriteTo(&buf); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("write %s export: %w", export.Format, err))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export download interrupted",
			slog.String("file", export.FileName),
			slog.String("error", err.Error()))
	}
}
