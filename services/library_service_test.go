package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"AppMovin/models"
	"AppMovin/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote is a RemoteBackend whose Authenticate can be held open.
type fakeRemote struct {
	authErr      error
	release      chan struct{}
	entered      chan struct{}
	disconnected bool
	apps         []models.AppRecord
}

func (f *fakeRemote) Kind() models.BackendKind { return models.BackendDrive }
func (f *fakeRemote) Name() string { return "Fake Drive" }
func (f *fakeRemote) Init(ctx context.Context) error { return nil }
func (f *fakeRemote) Account() string { return "me@example.com" }
func (f *fakeRemote) Disconnect(ctx context.Context) error {
	f.disconnected = true
	return nil
}

func (f *fakeRemote) Authenticate(ctx context.Context) error {
	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.authErr
}

func (f *fakeRemote) ListApps(ctx context.Context) []models.AppRecord { return f.apps }

func (f *fakeRemote) UploadApp(ctx context.Context, sourcePath string, meta models.UploadMetadata) (models.AppRecord, error) {
	return models.AppRecord{}, models.ErrNotAuthenticated
}

func (f *fakeRemote) GetDownloadURL(ctx context.Context, id string) (string, error) {
	return "https://remote/" + id, nil
}

func (f *fakeRemote) DeleteApp(ctx context.Context, id string) error { return nil }

func newService(t *testing.T, remote *fakeRemote) (*LibraryService, *storage.LocalBackend) {
	t.Helper()
	local := storage.NewLocalBackend(t.TempDir())
	svc := NewLibraryService(local, Options{
		NewRemote: func(clientID, clientSecret string) (RemoteBackend, error) {
			if clientID == "" {
				return nil, models.ErrConfiguration
			}
			return remote, nil
		},
	})
	svc.Init(context.Background())
	return svc, local
}

func TestLibraryService_LocalOperations(t *testing.T) {
	ctx := context.Background()
	svc, local := newService(t, &fakeRemote{})

	src := filepath.Join(t.TempDir(), "demo.pkg")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	rec, err := svc.UploadApp(ctx, src, models.UploadMetadata{Name: "Demo", Version: "1.0.0", Description: "test"})
	require.NoError(t, err)

	apps := svc.ListApps(ctx)
	require.Len(t, apps, 1)
	assert.Equal(t, "Demo", apps[0].Name)

	path, err := svc.GetDownloadURL(ctx, rec.ID)
	require.NoError(t, err)
	assert.FileExists(t, path)

	require.NotNil(t, svc.StoragePath())
	assert.Equal(t, local.StoragePath(), *svc.StoragePath())

	require.NoError(t, svc.DeleteApp(ctx, rec.ID))
	require.NoError(t, svc.DeleteApp(ctx, rec.ID))
	assert.Empty(t, svc.ListApps(ctx))

	_, err = svc.GetDownloadURL(ctx, "nonexistent")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLibraryService_AuthorizeSwitchesBackend(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{apps: []models.AppRecord{{ID: "r1", Name: "Remote"}}}
	svc, _ := newService(t, remote)

	res := svc.AuthorizeRemote(ctx, "client", "secret")
	require.True(t, res.Success, res.Error)

	assert.Equal(t, models.BackendDrive, svc.Backend().Kind())
	assert.Equal(t, remote.apps, svc.ListApps(ctx))
	assert.Nil(t, svc.StoragePath())

	st := svc.Status()
	assert.Equal(t, models.BackendDrive, st.Backend)
	assert.Equal(t, "me@example.com", st.Account)

	set := svc.SetStoragePath(ctx, t.TempDir(), true)
	assert.False(t, set.Success)
	assert.Equal(t, models.ErrNotLocalBackend.Error(), set.Error)

	require.NoError(t, svc.Disconnect(ctx))
	assert.True(t, remote.disconnected)
	assert.Equal(t, models.BackendLocal, svc.Backend().Kind())
	assert.Empty(t, svc.Status().Account)
}

func TestLibraryService_AuthorizeFailureKeepsLocal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, &fakeRemote{authErr: errors.New("authorization failed: no code received")})

	res := svc.AuthorizeRemote(ctx, "client", "secret")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no code received")
	assert.Equal(t, models.BackendLocal, svc.Backend().Kind())

	res = svc.AuthorizeRemote(ctx, "", "")
	assert.False(t, res.Success)
	assert.Equal(t, models.ErrConfiguration.Error(), res.Error)
}

func TestLibraryService_OneAuthorizationAtATime(t *testing.T) {
	remote := &fakeRemote{release: make(chan struct{}), entered: make(chan struct{})}
	svc, _ := newService(t, remote)

	var wg sync.WaitGroup
	var first models.Result
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = svc.AuthorizeRemote(context.Background(), "client", "secret")
	}()
	<-remote.entered

	second := svc.AuthorizeRemote(context.Background(), "client", "secret")
	assert.False(t, second.Success)
	assert.Equal(t, models.ErrAuthInProgress.Error(), second.Error)

	close(remote.release)
	wg.Wait()
	assert.True(t, first.Success)
}

func TestLibraryService_AuthTimeout(t *testing.T) {
	local := storage.NewLocalBackend(t.TempDir())
	remote := &fakeRemote{release: make(chan struct{})}
	svc := NewLibraryService(local, Options{
		AuthTimeout: 20 * time.Millisecond,
		NewRemote: func(string, string) (RemoteBackend, error) {
			return remote, nil
		},
	})

	res := svc.AuthorizeRemote(context.Background(), "client", "secret")
	assert.False(t, res.Success)
	assert.Equal(t, models.BackendLocal, svc.Backend().Kind())
}

func TestLibraryService_SetStoragePath(t *testing.T) {
	ctx := context.Background()
	svc, local := newService(t, &fakeRemote{})

	newDir := filepath.Join(t.TempDir(), "library")
	res := svc.SetStoragePath(ctx, newDir, false)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, newDir, local.StoragePath())
}

type stubPicker struct{ path *string }

func (p stubPicker) PickDirectory(ctx context.Context) (*string, error) { return p.path, nil }

func TestLibraryService_PickDirectory(t *testing.T) {
	ctx := context.Background()
	local := storage.NewLocalBackend(t.TempDir())

	picked, err := NewLibraryService(local, Options{}).PickDirectory(ctx)
	require.NoError(t, err)
	assert.Nil(t, picked)

	dir := "/srv/apps"
	picked, err = NewLibraryService(local, Options{Picker: stubPicker{path: &dir}}).PickDirectory(ctx)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, dir, *picked)
}
