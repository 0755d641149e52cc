package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"arvaiapulse/internal/dataset"
	apierrors "arvaiapulse/internal/errors"
	"arvaiapulse/internal/middleware"
	"arvaiapulse/pkg/contracts/domain"
)

// Accepted upload media types
const (
	ContentTypeText = "text/plain"
	ContentTypeTSV  = "text/tab-separated-values"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DatasetHandler exposes the loaded dataset and replaces it
type DatasetHandler struct {
	service        DatasetManager
	validator      *middleware.ValidationMiddleware
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewDatasetHandler creates a new dataset handler. A non-positive
// maxUploadBytes leaves the body unlimited.
func NewDatasetHandler(
	service DatasetManager,
	validator *middleware.ValidationMiddleware,
	errorHandler *apierrors.ErrorHandler,
	maxUploadBytes int64,
	logger *slog.Logger,
) *DatasetHandler {
	return &DatasetHandler{
		service:        service,
		validator:      validator,
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "dataset")),
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetInfo)
	r.Post("/reload", h.Reload)

	r.Group(func(r chi.Router) {
		if h.maxUploadBytes > 0 {
			r.Use(middleware.MaxBodySize(h.maxUploadBytes))
		}
		r.Use(middleware.ContentTypeValidator(h.errorHandler, ContentTypeText, ContentTypeTSV, ContentTypeXLSX))
		r.Post("/", h.Upload)
	})
	return r
}

// GetInfo handles GET /api/dataset
func (h *DatasetHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info()
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}
	render.JSON(w, r, info)
}

// Reload handles POST /api/dataset/reload
func (h *DatasetHandler) Reload(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Reload(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "dataset reloaded on request",
		slog.Int("records", info.RecordCount),
		slog.String("checksum", info.Checksum))
	render.JSON(w, r, info)
}

// Upload handles POST /api/dataset. The body is either TSV text or an
// XLSX workbook; ?name= and ?sheet= are optional.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	q := UploadQuery{
		Name:  r.URL.Query().Get("name"),
		Sheet: r.URL.Query().Get("sheet"),
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	name := q.Name
	if name == "" {
		name = "upload"
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		info domain.DatasetInfo
		err  error
	)
	if mediaType == ContentTypeXLSX {
		info, err = h.service.ReplaceXLSX(r.Context(), r.Body, q.Sheet, name)
	} else {
		var raw []byte
		if raw, err = io.ReadAll(r.Body); err == nil {
			info, err = h.service.Replace(r.Context(), string(raw), name)
		}
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, uploadError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "dataset replaced by upload",
		slog.String("name", name),
		slog.Int("records", info.RecordCount))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, info)
}

// uploadError maps a failed upload. An unreadable upload is the client's
// fault, unlike an unreadable configured source.
func uploadError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, dataset.ErrSourceUnavailable):
		return apierrors.InvalidRequestWithError(err)
	}
	if mapped := toAPIError(err); mapped != err {
		return mapped
	}
	return apierrors.InvalidRequestWithError(err)
}
