package localfs

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ListOptions configures ListDirectory.
type ListOptions struct {
	// IncludeHidden keeps dot-files, which are dropped by default.
	IncludeHidden bool

	// FilesOnly drops directories, symlinks and other non-regular entries.
	FilesOnly bool
}

// FileEntry represents a file or directory in the local filesystem.
type FileEntry struct {
	Path    string      // Full path to the file
	Name    string      // Base name of the file
	Size    int64       // Size in bytes (0 for directories)
	IsDir   bool        // True if this is a directory
	ModTime time.Time   // Last modification time
	Mode    fs.FileMode // File mode/permissions
}

// ListDirectory returns the contents of a directory, filtered by options,
// in the order os.ReadDir reports them (sorted by name).
// The context is checked between entries so very large directories can be abandoned.
func ListDirectory(ctx context.Context, path string, opts ListOptions) ([]FileEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	result := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()

		// Filter hidden files unless explicitly included
		if !opts.IncludeHidden && IsHiddenName(name) {
			continue
		}
		if opts.FilesOnly && entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Skip entries we can't stat (permission issues, removed mid-listing)
			continue
		}
		if opts.FilesOnly && !info.Mode().IsRegular() {
			continue
		}

		result = append(result, FileEntry{
			Path:    filepath.Join(path, name),
			Name:    name,
			Size:    info.Size(),
			IsDir:   entry.IsDir(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		})
	}

	return result, nil
}

// ListFilePaths returns the full paths of the regular files in dir.
// This is the flat list served by the get_file_list command.
func ListFilePaths(ctx context.Context, dir string, includeHidden bool) ([]string, error) {
	entries, err := ListDirectory(ctx, dir, ListOptions{IncludeHidden: includeHidden, FilesOnly: true})
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return paths, nil
}
