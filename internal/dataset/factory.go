package dataset

import (
	"fmt"
	"os"

	"arvaiapulse/internal/config"
)

// FromConfig builds the Source described by cfg. When the configured path is
// a directory, the most recently modified dataset file inside it is used.
func FromConfig(cfg config.DatasetConfig) (Source, error) {
	switch cfg.Source {
	case config.SourceSheets:
		return NewSheetsSource(cfg.SpreadsheetID, cfg.SheetName, cfg.Range, cfg.APIKey), nil
	case config.SourceFile, config.SourceXLSX, "":
		path, err := resolveFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		if cfg.Source == config.SourceXLSX || KindForPath(path) == KindXLSX {
			return NewXLSXSource(path, cfg.SheetName), nil
		}
		return NewFileSource(path), nil
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.Source)
	}
}

func resolveFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		// Missing files surface on Load, so the server can start and report.
		return path, nil
	}

	files, err := FindDatasets(path)
	if err != nil {
		return "", err
	}
	latest, ok := LatestFile(files)
	if !ok {
		return "", fmt.Errorf("%w: no dataset files in %s", ErrSourceUnavailable, path)
	}
	return latest.Path, nil
}
