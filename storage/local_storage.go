package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"AppMovin/models"
	"AppMovin/repositories"
	"AppMovin/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	indexFileName    = "db.json"
	settingsFileName = "config.json"
	defaultAppsDir   = "apps"
)

// LocalBackend keeps payloads in a managed directory and their metadata in
// a JSON index under the data directory. The index never moves with the
// managed directory.
type LocalBackend struct {
	// mu serializes index read-modify-write cycles and directory changes.
	mu         sync.Mutex
	storageDir string
	index      *repositories.IndexRepository
	settings   *repositories.SettingsRepository

	newID func() string
	now   func() time.Time
}

func NewLocalBackend(dataDir string) *LocalBackend {
	return &LocalBackend{
		storageDir: filepath.Join(dataDir, defaultAppsDir),
		index:      repositories.NewIndexRepository(filepath.Join(dataDir, indexFileName)),
		settings:   repositories.NewSettingsRepository(filepath.Join(dataDir, settingsFileName)),
		newID:      func() string { return uuid.New().String() },
		now:        time.Now,
	}
}

func (s *LocalBackend) Kind() models.BackendKind { return models.BackendLocal }

func (s *LocalBackend) Name() string { return "Local Storage" }

// Init resolves the managed directory (a saved custom path wins over the
// default) and creates it.
func (s *LocalBackend) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg := s.settings.Load(); cfg.StoragePath != "" {
		s.storageDir = cfg.StoragePath
	}
	if err := utils.EnsureDir(s.storageDir); err != nil {
		return fmt.Errorf("%w: create storage dir: %w", models.ErrIOFailure, err)
	}

	logrus.WithField("path", s.storageDir).Info("Local storage ready")
	return nil
}

func (s *LocalBackend) StoragePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storageDir
}

// SetStoragePath switches the managed directory. With moveExisting every
// regular file is moved file by file; a failure part way leaves files in
// both directories, keeps the old path active and is returned so the caller
// can retry.
func (s *LocalBackend) SetStoragePath(ctx context.Context, newPath string, moveExisting bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newPath == "" {
		return fmt.Errorf("%w: storage path is empty", models.ErrConfiguration)
	}
	newPath = filepath.Clean(newPath)
	if newPath == filepath.Clean(s.storageDir) {
		return nil
	}

	logger := logrus.WithFields(logrus.Fields{
		"from": s.storageDir,
		"to":   newPath,
		"move": moveExisting,
	})

	if err := utils.EnsureDir(newPath); err != nil {
		return fmt.Errorf("%w: create storage dir: %w", models.ErrIOFailure, err)
	}

	if moveExisting {
		moved, err := utils.MoveRegularFiles(s.storageDir, newPath, s.ownFiles()...)
		if err != nil && !(moved == 0 && errors.Is(err, os.ErrNotExist)) {
			logger.WithError(err).WithField("moved", moved).Error("Storage move interrupted")
			return fmt.Errorf("%w: move interrupted after %d files: %w", models.ErrIOFailure, moved, err)
		}
		logger.WithField("moved", moved).Info("Moved stored apps")
	}

	if err := s.settings.Save(models.StorageConfig{StoragePath: newPath}); err != nil {
		logger.WithError(err).Error("Error saving storage path")
		return fmt.Errorf("%w: %w", models.ErrIOFailure, err)
	}
	s.storageDir = newPath

	logger.Info("Storage path changed")
	return nil
}

// ownFiles lists the index and settings files, which stay in the data
// directory even when it doubles as the managed directory.
func (s *LocalBackend) ownFiles() []string {
	return []string{s.index.Path(), s.settings.Path()}
}

func (s *LocalBackend) ListApps(ctx context.Context) []models.AppRecord {
	return s.index.Load()
}

func (s *LocalBackend) UploadApp(ctx context.Context, sourcePath string, meta models.UploadMetadata) (models.AppRecord, error) {
	meta, err := prepareUpload(sourcePath, meta)
	if err != nil {
		return models.AppRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	filename := id + "-" + filepath.Base(sourcePath)
	target := filepath.Join(s.storageDir, filename)

	logger := logrus.WithFields(logrus.Fields{
		"id":       id,
		"filename": filename,
		"source":   sourcePath,
	})
	logger.Info("Starting app upload")

	if _, err := utils.CopyFile(sourcePath, target); err != nil {
		logger.WithError(err).Error("Error copying app payload")
		return models.AppRecord{}, fmt.Errorf("%w: copy payload: %w", models.ErrIOFailure, err)
	}

	record := models.AppRecord{
		ID:          id,
		Name:        meta.Name,
		Version:     meta.Version,
		Size:        meta.Size,
		Description: meta.Description,
		Icon:        meta.Icon,
		Filename:    filename,
		UploadedAt:  s.now().UnixMilli(),
	}

	apps := append(s.index.Load(), record)
	if err := s.index.Save(apps); err != nil {
		os.Remove(target)
		logger.WithError(err).Error("Error writing app index")
		return models.AppRecord{}, fmt.Errorf("%w: %w", models.ErrIOFailure, err)
	}

	logger.Info("Uploaded app successfully")
	return record, nil
}

func (s *LocalBackend) GetDownloadURL(ctx context.Context, id string) (string, error) {
	app, ok := s.index.Find(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return filepath.Join(s.StoragePath(), app.Filename), nil
}

// DeleteApp drops the index entry even when the payload cannot be removed.
// Unknown ids are ignored.
func (s *LocalBackend) DeleteApp(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	apps := s.index.Load()
	pos := -1
	for i, app := range apps {
		if app.ID == id {
			pos = i
			break
		}
	}
	if pos == -1 {
		return nil
	}

	app := apps[pos]
	logger := logrus.WithFields(logrus.Fields{
		"id":       id,
		"filename": app.Filename,
	})

	if err := os.Remove(filepath.Join(s.storageDir, app.Filename)); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithError(err).Warn("Could not remove app payload")
	}

	apps = append(apps[:pos], apps[pos+1:]...)
	if err := s.index.Save(apps); err != nil {
		return fmt.Errorf("%w: %w", models.ErrIOFailure, err)
	}

	logger.Info("Deleted app successfully")
	return nil
}
