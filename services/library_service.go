package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"AppMovin/models"
	"AppMovin/storage"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// RemoteBackend is a backend that only becomes usable after an interactive
// authorization.
type RemoteBackend interface {
	storage.Backend
	Authenticate(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Account() string
}

// RemoteFactory builds a fresh remote backend for one authorization attempt.
type RemoteFactory func(clientID, clientSecret string) (RemoteBackend, error)

// DirectoryPicker lets the user choose a directory. A nil path means the
// user cancelled.
type DirectoryPicker interface {
	PickDirectory(ctx context.Context) (*string, error)
}

type Status struct {
	Backend     models.BackendKind `json:"backend"`
	Name        string             `json:"name"`
	StoragePath *string            `json:"storagePath"`
	Account     string             `json:"account,omitempty"`
}

// LibraryService is the single entry point the presentation layer uses. It
// holds the active backend; switching is one guarded pointer swap and does
// not affect calls already running against the previous backend.
type LibraryService struct {
	mu      sync.RWMutex
	current storage.Backend
	remote  RemoteBackend

	local       *storage.LocalBackend
	newRemote   RemoteFactory
	picker      DirectoryPicker
	authTimeout time.Duration
	authSem     *semaphore.Weighted
}

type Options struct {
	// Initial is the backend active at startup. Defaults to the local one.
	Initial   storage.Backend
	NewRemote RemoteFactory
	Picker    DirectoryPicker
	// AuthTimeout bounds an authorization attempt. Zero waits forever.
	AuthTimeout time.Duration
}

func NewLibraryService(local *storage.LocalBackend, opts Options) *LibraryService {
	current := opts.Initial
	if current == nil {
		current = local
	}
	return &LibraryService{
		current:     current,
		local:       local,
		newRemote:   opts.NewRemote,
		picker:      opts.Picker,
		authTimeout: opts.AuthTimeout,
		authSem:     semaphore.NewWeighted(1),
	}
}

// Init prepares the local backend and the active one. Failures are logged
// and never stop startup.
func (s *LibraryService) Init(ctx context.Context) {
	if err := s.local.Init(ctx); err != nil {
		logrus.WithError(err).Error("Failed to init local storage")
	}
	if b := s.Backend(); b.Kind() != models.BackendLocal {
		if err := b.Init(ctx); err != nil {
			logrus.WithFields(logrus.Fields{
				"backend": b.Kind(),
				"error":   err,
			}).Error("Failed to init storage")
		}
	}
}

// Backend returns the active backend.
func (s *LibraryService) Backend() storage.Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Use makes b the active backend.
func (s *LibraryService) Use(b storage.Backend) {
	s.mu.Lock()
	prev := s.current
	s.current = b
	if r, ok := b.(RemoteBackend); ok {
		s.remote = r
	} else {
		s.remote = nil
	}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"from": prev.Kind(),
		"to":   b.Kind(),
	}).Info("Switched active storage")
}

func (s *LibraryService) ListApps(ctx context.Context) []models.AppRecord {
	return s.Backend().ListApps(ctx)
}

func (s *LibraryService) UploadApp(ctx context.Context, sourcePath string, meta models.UploadMetadata) (models.AppRecord, error) {
	return s.Backend().UploadApp(ctx, sourcePath, meta)
}

func (s *LibraryService) GetDownloadURL(ctx context.Context, id string) (string, error) {
	return s.Backend().GetDownloadURL(ctx, id)
}

func (s *LibraryService) DeleteApp(ctx context.Context, id string) error {
	return s.Backend().DeleteApp(ctx, id)
}

// AuthorizeRemote runs an authorization against a fresh remote backend and
// makes it active on success. Only one attempt runs at a time.
func (s *LibraryService) AuthorizeRemote(ctx context.Context, clientID, clientSecret string) models.Result {
	if err := s.authorizeRemote(ctx, clientID, clientSecret); err != nil {
		logrus.WithError(err).Error("Google Auth Error")
		return models.Failed(err)
	}
	return models.OK()
}

func (s *LibraryService) authorizeRemote(ctx context.Context, clientID, clientSecret string) error {
	if s.newRemote == nil {
		return fmt.Errorf("%w: no remote provider configured", models.ErrConfiguration)
	}
	if !s.authSem.TryAcquire(1) {
		return models.ErrAuthInProgress
	}
	defer s.authSem.Release(1)

	remote, err := s.newRemote(clientID, clientSecret)
	if err != nil {
		return err
	}

	if s.authTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.authTimeout)
		defer cancel()
	}
	if err := remote.Authenticate(ctx); err != nil {
		return err
	}

	s.Use(remote)
	return nil
}

// Disconnect drops the remote session, if one is active, and returns to
// local storage.
func (s *LibraryService) Disconnect(ctx context.Context) error {
	s.mu.RLock()
	remote := s.remote
	s.mu.RUnlock()
	if remote == nil {
		return nil
	}

	s.Use(s.local)
	if err := remote.Disconnect(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to revoke remote credential")
		return err
	}
	return nil
}

// StoragePath returns the managed directory, or nil when the active backend
// is not local.
func (s *LibraryService) StoragePath() *string {
	if s.Backend().Kind() != models.BackendLocal {
		return nil
	}
	p := s.local.StoragePath()
	return &p
}

func (s *LibraryService) SetStoragePath(ctx context.Context, newPath string, moveExisting bool) models.Result {
	if s.Backend().Kind() != models.BackendLocal {
		return models.Failed(models.ErrNotLocalBackend)
	}
	if err := s.local.SetStoragePath(ctx, newPath, moveExisting); err != nil {
		logrus.WithError(err).Error("Failed to change storage path")
		return models.Failed(err)
	}
	return models.OK()
}

// PickDirectory asks the host for a directory. Nil means cancelled or no
// picker available.
func (s *LibraryService) PickDirectory(ctx context.Context) (*string, error) {
	if s.picker == nil {
		return nil, nil
	}
	return s.picker.PickDirectory(ctx)
}

func (s *LibraryService) Status() Status {
	s.mu.RLock()
	b, remote := s.current, s.remote
	s.mu.RUnlock()

	st := Status{
		Backend:     b.Kind(),
		Name:        b.Name(),
		StoragePath: s.StoragePath(),
	}
	if remote != nil {
		st.Account = remote.Account()
	}
	return st
}
