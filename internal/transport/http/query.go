package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"arvaiapulse/internal/dataset"
	apierrors "arvaiapulse/internal/errors"
	"arvaiapulse/internal/services"
	"arvaiapulse/pkg/contracts/domain"
)

// DashboardQuery holds the dashboard filter. Product and week are mutually
// exclusive.
type DashboardQuery struct {
	Product string `query:"product" validate:"omitempty,max=64,product,excluded_with=Week"`
	Week    *int   `query:"week" validate:"omitempty,gte=0"`
}

// Selection converts the query into the core filter
func (q DashboardQuery) Selection() domain.Selection {
	switch {
	case q.Week != nil:
		return domain.SelectWeek(*q.Week)
	case strings.TrimSpace(q.Product) != "":
		return domain.SelectProduct(q.Product)
	default:
		return domain.Selection{}
	}
}

// UploadQuery holds the optional metadata of a dataset upload
type UploadQuery struct {
	Name  string `query:"name" validate:"omitempty,max=128,filename"`
	Sheet string `query:"sheet" validate:"omitempty,max=64"`
}

// parseDashboardQuery reads product and week from the URL. Only syntax is
// checked here; constraints are enforced by the validator.
func parseDashboardQuery(r *http.Request) (DashboardQuery, error) {
	values := r.URL.Query()
	q := DashboardQuery{Product: values.Get("product")}

	if raw := strings.TrimSpace(values.Get("week")); raw != "" {
		week, err := strconv.Atoi(raw)
		if err != nil {
			return q, apierrors.ErrValidation("week", "week must be an integer")
		}
		q.Week = &week
	}
	return q, nil
}

// quoteETag renders a dataset checksum as a strong entity tag
func quoteETag(checksum string) string {
	return `"` + checksum + `"`
}

// etagMatches reports whether an If-None-Match header matches etag.
func etagMatches(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// toAPIError maps service errors onto their RFC 7807 equivalents
func toAPIError(err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, services.ErrDatasetNotLoaded):
		return apierrors.ErrDatasetNotLoaded
	case errors.Is(err, services.ErrEmptyUpload):
		return apierrors.ErrEmptyDataset
	case errors.Is(err, services.ErrUnsupportedFormat):
		return apierrors.NotFoundError("export format")
	case errors.As(err, &maxErr):
		return apierrors.ErrPayloadTooLarge
	case errors.Is(err, dataset.ErrSourceUnavailable):
		return apierrors.SourceError(err)
	default:
		return err
	}
}
