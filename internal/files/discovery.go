package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TableExtensions are the raw table formats the pipeline can read, in
// preference order
var TableExtensions = []string{".csv", ".xlsx", ".xlsm"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds raw input tables under a base path
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindTableFiles returns the CSV and Excel files in dir, oldest first.
// Excel lock files ("~$name.xlsx") are skipped.
func (d *Discovery) FindTableFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "~$") || extRank(name) < 0 {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.Before(files[j].ModTime)
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// ResolveInput returns path when it exists. Otherwise it looks in the same
// directory for a table with the same stem and another supported extension,
// preferring CSV over Excel, and returns that. When nothing matches, path is
// returned unchanged so the caller reports it as missing.
func (d *Discovery) ResolveInput(path string) (string, bool) {
	full := d.resolve(path)
	if _, err := os.Stat(full); err == nil {
		return full, false
	}

	dir := filepath.Dir(full)
	stem := strings.TrimSuffix(filepath.Base(full), filepath.Ext(full))

	candidates, err := d.FindTableFiles(dir)
	if err != nil {
		return full, false
	}

	best, bestRank := "", len(TableExtensions)
	for _, f := range candidates {
		if !strings.EqualFold(strings.TrimSuffix(f.Name, filepath.Ext(f.Name)), stem) {
			continue
		}
		if r := extRank(f.Name); r < bestRank {
			best, bestRank = f.Path, r
		}
	}
	if best == "" {
		return full, false
	}
	return best, true
}

func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) || d.basePath == "" {
		return path
	}
	return filepath.Join(d.basePath, path)
}

func extRank(name string) int {
	ext := strings.ToLower(filepath.Ext(name))
	for i, e := range TableExtensions {
		if e == ext {
			return i
		}
	}
	return -1
}
