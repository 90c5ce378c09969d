package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"AppMovin/models"
)

// AuditReport lists the drift between the index and the managed directory.
type AuditReport struct {
	StoragePath string   `json:"storagePath"`
	Indexed     int      `json:"indexed"`
	Missing     []string `json:"missing"`
	Stray       []string `json:"stray"`
}

func (r AuditReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Stray) == 0
}

// Audit compares db.json with the files of the managed directory. Missing
// holds ids whose payload is gone, Stray holds filenames no record points
// at. Nothing is modified.
func (s *LocalBackend) Audit(ctx context.Context) (AuditReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := AuditReport{
		StoragePath: s.storageDir,
		Missing:     []string{},
		Stray:       []string{},
	}

	entries, err := os.ReadDir(s.storageDir)
	if err != nil && !os.IsNotExist(err) {
		return report, fmt.Errorf("%w: read storage dir: %w", models.ErrIOFailure, err)
	}
	own := make(map[string]bool, 2)
	for _, p := range s.ownFiles() {
		own[filepath.Clean(p)] = true
	}
	onDisk := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !own[filepath.Join(s.storageDir, e.Name())] {
			onDisk[e.Name()] = true
		}
	}

	apps := s.index.Load()
	report.Indexed = len(apps)
	referenced := make(map[string]bool, len(apps))
	for _, app := range apps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		referenced[app.Filename] = true
		if !onDisk[app.Filename] {
			report.Missing = append(report.Missing, app.ID)
		}
	}

	for _, e := range entries {
		name := e.Name()
		if onDisk[name] && !referenced[name] {
			report.Stray = append(report.Stray, name)
		}
	}
	return report, nil
}
