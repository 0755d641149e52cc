package http

import (
	"context"
	"io"

	"arvaiapulse/internal/services"
	"arvaiapulse/pkg/contracts/domain"
)

// DatasetManager is the dataset side of services.DatasetService
type DatasetManager interface {
	Info() (domain.DatasetInfo, error)
	Reload(ctx context.Context) (domain.DatasetInfo, error)
	Replace(ctx context.Context, raw, name string) (domain.DatasetInfo, error)
	ReplaceXLSX(ctx context.Context, r io.Reader, sheet, name string) (domain.DatasetInfo, error)
}

// InsightsProvider produces the generative summary
type InsightsProvider interface {
	Summarize(ctx context.Context, sel domain.Selection) (string, error)
}

// ExportPreparer prepares report downloads
type ExportPreparer interface {
	Prepare(ctx context.Context, format string, sel domain.Selection) (*services.Export, error)
}

var (
	_ DatasetManager   = (*services.DatasetService)(nil)
	_ InsightsProvider = (*services.InsightsService)(nil)
	_ ExportPreparer   = (*services.ExportService)(nil)
)
