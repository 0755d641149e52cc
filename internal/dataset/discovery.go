package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents a dataset file found on disk.
type FileInfo struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// datasetExtensions maps a file extension to the source kind that reads it.
var datasetExtensions = map[string]string{
	".tsv":  KindFile,
	".txt":  KindFile,
	".xlsx": KindXLSX,
}

// FindDatasets lists the dataset files in dir, oldest first.
func FindDatasets(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, ok := datasetExtensions[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// LatestFile returns the most recently modified file from a list
func LatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}
	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}

// KindForPath returns the source kind for a file name, KindFile by default.
func KindForPath(path string) string {
	if kind, ok := datasetExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return kind
	}
	return KindFile
}
