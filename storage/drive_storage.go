package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"AppMovin/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// DriveFolderName is the single folder all apps live in.
	DriveFolderName = "AppMovin"
	folderMimeType  = "application/vnd.google-apps.folder"

	propVersion = "version"
	propName    = "appName"
	propIcon    = "icon"

	driveFileFields = "id, name, size, description, webContentLink, createdTime, appProperties"
)

// Authorizer yields the credential the Drive client runs with.
type Authorizer interface {
	Authenticate(ctx context.Context) (oauth2.TokenSource, error)
	Revoke(ctx context.Context) error
}

// FileService is the slice of the Drive files API the backend needs.
type FileService interface {
	FindFolders(ctx context.Context, name string) ([]*drive.File, error)
	CreateFolder(ctx context.Context, name string) (*drive.File, error)
	ListChildren(ctx context.Context, folderID string) ([]*drive.File, error)
	Upload(ctx context.Context, meta *drive.File, media io.Reader) (*drive.File, error)
	Get(ctx context.Context, id string) (*drive.File, error)
	Delete(ctx context.Context, id string) error
}

type DriveOptions struct {
	// NewFileService builds the files client once a token source exists.
	// Defaults to the Drive v3 API.
	NewFileService func(ctx context.Context, ts oauth2.TokenSource) (FileService, error)
	// LookupAccount resolves the signed-in account for display. Optional.
	LookupAccount func(ctx context.Context, ts oauth2.TokenSource) (string, error)
}

// DriveBackend stores apps in a Google Drive folder. Until Authenticate
// succeeds it lists nothing and refuses every other operation.
type DriveBackend struct {
	auth Authorizer
	opts DriveOptions

	mu       sync.RWMutex
	files    FileService
	folderID string
	account  string
}

func NewDriveBackend(auth Authorizer, opts DriveOptions) *DriveBackend {
	if opts.NewFileService == nil {
		opts.NewFileService = NewDriveFileService
	}
	return &DriveBackend{auth: auth, opts: opts}
}

func (d *DriveBackend) Kind() models.BackendKind { return models.BackendDrive }

func (d *DriveBackend) Name() string { return "Google Drive" }

// Init is a no-op; the backend becomes usable through Authenticate.
func (d *DriveBackend) Init(ctx context.Context) error {
	return nil
}

// Authenticate runs the authorization flow, then finds or creates the app
// folder.
func (d *DriveBackend) Authenticate(ctx context.Context) error {
	ts, err := d.auth.Authenticate(ctx)
	if err != nil {
		return err
	}

	files, err := d.opts.NewFileService(ctx, ts)
	if err != nil {
		return fmt.Errorf("%w: create drive client: %w", models.ErrAuthFailure, err)
	}

	folderID, err := ensureFolder(ctx, files)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrIOFailure, err)
	}

	var account string
	if d.opts.LookupAccount != nil {
		if account, err = d.opts.LookupAccount(ctx, ts); err != nil {
			logrus.WithError(err).Warn("Could not resolve Google account")
		}
	}

	d.mu.Lock()
	d.files = files
	d.folderID = folderID
	d.account = account
	d.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"folder":  folderID,
		"account": account,
	}).Info("Google Drive storage ready")
	return nil
}

// ensureFolder takes the first folder the provider lists under the app
// name, creating one when none exists. Duplicate folders are not merged.
func ensureFolder(ctx context.Context, files FileService) (string, error) {
	found, err := files.FindFolders(ctx, DriveFolderName)
	if err != nil {
		return "", fmt.Errorf("find app folder: %w", err)
	}
	if len(found) > 0 {
		if len(found) > 1 {
			logrus.WithField("count", len(found)).Warn("Multiple app folders found, using the first listed")
		}
		return found[0].Id, nil
	}

	folder, err := files.CreateFolder(ctx, DriveFolderName)
	if err != nil {
		return "", fmt.Errorf("create app folder: %w", err)
	}
	return folder.Id, nil
}

func (d *DriveBackend) Account() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.account
}

func (d *DriveBackend) session() (FileService, string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.files == nil || d.folderID == "" {
		return nil, "", models.ErrNotAuthenticated
	}
	return d.files, d.folderID, nil
}

func (d *DriveBackend) ListApps(ctx context.Context) []models.AppRecord {
	files, folderID, err := d.session()
	if err != nil {
		return []models.AppRecord{}
	}

	found, err := files.ListChildren(ctx, folderID)
	if err != nil {
		logrus.WithError(err).Error("Error listing Google Drive apps")
		return []models.AppRecord{}
	}

	apps := make([]models.AppRecord, 0, len(found))
	for _, f := range found {
		apps = append(apps, recordFromDriveFile(f))
	}
	return apps
}

func (d *DriveBackend) UploadApp(ctx context.Context, sourcePath string, meta models.UploadMetadata) (models.AppRecord, error) {
	files, folderID, err := d.session()
	if err != nil {
		return models.AppRecord{}, err
	}
	meta, err = prepareUpload(sourcePath, meta)
	if err != nil {
		return models.AppRecord{}, err
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return models.AppRecord{}, fmt.Errorf("%w: %w", models.ErrIOFailure, err)
	}
	defer src.Close()

	logger := logrus.WithFields(logrus.Fields{
		"source": sourcePath,
		"folder": folderID,
	})
	logger.Info("Initiating Google Drive upload")

	props := map[string]string{
		propVersion: meta.Version,
		propName:    meta.Name,
	}
	if meta.Icon != "" {
		props[propIcon] = meta.Icon
	}

	created, err := files.Upload(ctx, &drive.File{
		Name:          filepath.Base(sourcePath),
		Parents:       []string{folderID},
		Description:   meta.Description,
		AppProperties: props,
	}, src)
	if err != nil {
		logger.WithError(err).Error("Error uploading to Google Drive")
		return models.AppRecord{}, fmt.Errorf("%w: drive upload: %w", models.ErrIOFailure, err)
	}

	logger.WithField("id", created.Id).Info("Uploaded app successfully")
	return models.AppRecord{
		ID:          created.Id,
		Name:        meta.Name,
		Version:     meta.Version,
		Size:        created.Size,
		Description: meta.Description,
		Icon:        meta.Icon,
		Filename:    created.Name,
		UploadedAt:  parseDriveTime(created.CreatedTime),
	}, nil
}

func (d *DriveBackend) GetDownloadURL(ctx context.Context, id string) (string, error) {
	files, folderID, err := d.session()
	if err != nil {
		return "", err
	}

	f, err := files.Get(ctx, id)
	if err != nil {
		if isDriveNotFound(err) {
			return "", fmt.Errorf("%w: %s", models.ErrNotFound, id)
		}
		return "", fmt.Errorf("%w: %w", models.ErrIOFailure, err)
	}
	if !inFolder(f, folderID) {
		return "", fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return f.WebContentLink, nil
}

// DeleteApp returns provider errors as they come. Files outside the app
// folder are reported as not found and left alone.
func (d *DriveBackend) DeleteApp(ctx context.Context, id string) error {
	files, folderID, err := d.session()
	if err != nil {
		return err
	}

	f, err := files.Get(ctx, id)
	if err != nil {
		return err
	}
	if !inFolder(f, folderID) {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}

	if err := files.Delete(ctx, id); err != nil {
		logrus.WithFields(logrus.Fields{
			"id":    id,
			"error": err,
		}).Error("Error deleting from Google Drive")
		return err
	}
	logrus.WithField("id", id).Info("Deleted app successfully")
	return nil
}

// Disconnect revokes the credential and forgets the session.
func (d *DriveBackend) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	d.files = nil
	d.folderID = ""
	d.account = ""
	d.mu.Unlock()
	return d.auth.Revoke(ctx)
}

func inFolder(f *drive.File, folderID string) bool {
	for _, p := range f.Parents {
		if p == folderID {
			return true
		}
	}
	return false
}

func recordFromDriveFile(f *drive.File) models.AppRecord {
	version := f.AppProperties[propVersion]
	if version == "" {
		version = models.DefaultVersion
	}
	name := f.AppProperties[propName]
	if name == "" {
		name = f.Name
	}
	return models.AppRecord{
		ID:          f.Id,
		Name:        name,
		Version:     version,
		Size:        f.Size,
		Description: f.Description,
		Icon:        f.AppProperties[propIcon],
		Filename:    f.Name,
		UploadedAt:  parseDriveTime(f.CreatedTime),
	}
}

func parseDriveTime(value string) int64 {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

func isDriveNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

// driveFileService adapts *drive.Service to FileService.
type driveFileService struct {
	files *drive.FilesService
}

// NewDriveFileService builds a Drive v3 client authorized by ts.
func NewDriveFileService(ctx context.Context, ts oauth2.TokenSource) (FileService, error) {
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, err
	}
	return &driveFileService{files: svc.Files}, nil
}

func (s *driveFileService) FindFolders(ctx context.Context, name string) ([]*drive.File, error) {
	q := fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false", folderMimeType, name)
	res, err := s.files.List().Q(q).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return res.Files, nil
}

func (s *driveFileService) CreateFolder(ctx context.Context, name string) (*drive.File, error) {
	return s.files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}).Fields("id").Context(ctx).Do()
}

func (s *driveFileService) ListChildren(ctx context.Context, folderID string) ([]*drive.File, error) {
	var out []*drive.File
	q := fmt.Sprintf("'%s' in parents and trashed=false", folderID)
	err := s.files.List().
		Q(q).
		Fields("nextPageToken, files("+driveFileFields+")").
		Pages(ctx, func(page *drive.FileList) error {
			out = append(out, page.Files...)
			return nil
		})
	return out, err
}

func (s *driveFileService) Upload(ctx context.Context, meta *drive.File, media io.Reader) (*drive.File, error) {
	return s.files.Create(meta).
		Media(media, googleapi.ContentType("application/octet-stream")).
		Fields("id, name, size, webContentLink, createdTime").
		Context(ctx).
		Do()
}

func (s *driveFileService) Get(ctx context.Context, id string) (*drive.File, error) {
	return s.files.Get(id).Fields("id, parents, webContentLink").Context(ctx).Do()
}

func (s *driveFileService) Delete(ctx context.Context, id string) error {
	return s.files.Delete(id).Context(ctx).Do()
}
