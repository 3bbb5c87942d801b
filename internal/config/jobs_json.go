package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/logocruncher/logo-cruncher/internal/models"
)

// ErrEmptyBackup is returned when a backup file holds no job list.
var ErrEmptyBackup = errors.New("job backup is empty")

func backupLock(path string) *flock.Flock {
	return flock.New(path + ".lock")
}

// SaveJobsBackup writes the job list as a pretty-printed JSON array.
// Concurrent writers are serialized with a lock file next to the backup and
// the file is replaced atomically.
func SaveJobsBackup(path string, jobs []models.LogoJob) error {
	if jobs == nil {
		jobs = []models.LogoJob{}
	}

	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal jobs to JSON: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	lock := backupLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire backup lock: %w", err)
	}
	defer lock.Unlock()

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp backup: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write jobs backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close jobs backup: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace jobs backup: %w", err)
	}
	return nil
}

// LoadJobsBackup reads a job list saved by SaveJobsBackup.
// Supports both a bare array and the {"logos": [...]} object. A missing
// backup yields an error matching fs.ErrNotExist.
func LoadJobsBackup(path string) ([]models.LogoJob, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("job backup %s: %w", path, err)
	}

	lock := backupLock(path)
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("acquire backup lock: %w", err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs backup: %w", err)
	}

	var wrapped struct {
		Logos *[]models.LogoJob `json:"logos"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		if wrapped.Logos == nil {
			return nil, ErrEmptyBackup
		}
		return *wrapped.Logos, nil
	}

	var jobs []models.LogoJob
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse jobs backup (expected {\"logos\": [...]} or an array): %w", err)
	}
	if jobs == nil {
		return nil, ErrEmptyBackup
	}
	return jobs, nil
}
