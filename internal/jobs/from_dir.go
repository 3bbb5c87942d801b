package jobs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/logocruncher/logo-cruncher/internal/constants"
	"github.com/logocruncher/logo-cruncher/internal/models"
)

// FromImageDir builds jobs for images already present in dir. Files named
// <id>.<ext> with a recognised source extension, or <id> with no extension,
// become jobs with a placeholder URL. Results are sorted by id.
func FromImageDir(dir string) ([]models.LogoJob, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("job directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("job directory %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read job directory: %w", err)
	}

	logos := make([]models.LogoJob, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		if ext != "" && !isSourceExtension(ext) {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimSuffix(name, filepath.Ext(name)), 10, 32)
		if err != nil {
			continue
		}
		logos = append(logos, models.LogoJob{ID: int64(id), URL: constants.EmptyJobURL})
	}

	sort.SliceStable(logos, func(i, j int) bool { return logos[i].ID < logos[j].ID })
	return logos, nil
}

func isSourceExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range constants.DirectoryJobExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
