package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains the directories the application reads from and writes to.
type Paths struct {
	WorkingDir    string
	ExecutableDir string
	DataDir       string
	ExportsDir    string
	LogsDir       string
}

// GetPaths returns the application paths. Data, exports and logs live next
// to the executable.
func GetPaths() (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	exeDir := filepath.Dir(exe)

	return &Paths{
		WorkingDir:    wd,
		ExecutableDir: exeDir,
		DataDir:       filepath.Join(exeDir, "data"),
		ExportsDir:    filepath.Join(exeDir, "data", "exports"),
		LogsDir:       filepath.Join(exeDir, "logs"),
	}, nil
}

// Resolve returns path unchanged when it is absolute or exists relative to
// the working directory; otherwise it is joined to the executable directory.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if FileExists(filepath.Join(p.WorkingDir, path)) {
		return filepath.Join(p.WorkingDir, path)
	}
	return filepath.Join(p.ExecutableDir, path)
}

// EnsureDirectories creates the writable directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ExportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
