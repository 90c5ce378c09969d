package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"AppMovin/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	objectPrefix = "apps/"

	metaID          = "app-id"
	metaName        = "app-name"
	metaVersion     = "app-version"
	metaDescription = "app-description"
	metaIcon        = "app-icon"
	metaUploadedAt  = "uploaded-at"

	presignExpiry = 15 * time.Minute
)

// ObjectAPI is the subset of *s3.Client used by S3Backend.
type ObjectAPI interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Backend stores apps as objects under a fixed prefix of an
// S3-compatible bucket, with metadata kept as object user metadata.
type S3Backend struct {
	Client    ObjectAPI
	Presigner Presigner
	Bucket    string

	newID func() string
	now   func() time.Time
}

func NewS3Backend(client ObjectAPI, presigner Presigner, bucket string) *S3Backend {
	return &S3Backend{
		Client:    client,
		Presigner: presigner,
		Bucket:    bucket,
		newID:     func() string { return uuid.New().String() },
		now:       time.Now,
	}
}

func (s *S3Backend) Kind() models.BackendKind { return models.BackendR2 }

func (s *S3Backend) Name() string { return "Cloudflare R2" }

func (s *S3Backend) Init(ctx context.Context) error {
	if s.Bucket == "" {
		return fmt.Errorf("%w: bucket name is required", models.ErrConfiguration)
	}
	logrus.WithField("bucket", s.Bucket).Info("Object storage ready")
	return nil
}

func (s *S3Backend) ListApps(ctx context.Context) []models.AppRecord {
	apps := []models.AppRecord{}

	paginator := s3.NewListObjectsV2Paginator(s.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(objectPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"bucket": s.Bucket,
				"error":  err,
			}).Error("Error listing objects")
			return []models.AppRecord{}
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			head, err := s.Client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(s.Bucket),
				Key:    obj.Key,
			})
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"key":   key,
					"error": err,
				}).Warn("Skipping object without readable metadata")
				continue
			}
			apps = append(apps, recordFromObject(key, aws.ToInt64(obj.Size), head.Metadata))
		}
	}

	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].UploadedAt < apps[j].UploadedAt
	})
	return apps
}

func (s *S3Backend) UploadApp(ctx context.Context, sourcePath string, meta models.UploadMetadata) (models.AppRecord, error) {
	meta, err := prepareUpload(sourcePath, meta)
	if err != nil {
		return models.AppRecord{}, err
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return models.AppRecord{}, fmt.Errorf("%w: %w", models.ErrIOFailure, err)
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return models.AppRecord{}, fmt.Errorf("%w: %w", models.ErrIOFailure, err)
	}

	record := models.AppRecord{
		ID:          s.newID(),
		Name:        meta.Name,
		Version:     meta.Version,
		Size:        meta.Size,
		Description: meta.Description,
		Icon:        meta.Icon,
		UploadedAt:  s.now().UnixMilli(),
	}
	record.Filename = record.ID + "-" + filepath.Base(sourcePath)
	key := objectPrefix + record.Filename

	logger := logrus.WithFields(logrus.Fields{
		"key":    key,
		"bucket": s.Bucket,
	})
	logger.Info("Initiating file upload")

	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          src,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/octet-stream"),
		Metadata:      objectMetadata(record),
	})
	if err != nil {
		logger.WithError(err).Error("Error uploading file")
		return models.AppRecord{}, fmt.Errorf("%w: upload object: %w", models.ErrIOFailure, err)
	}

	logger.Info("Uploaded file successfully")
	return record, nil
}

func (s *S3Backend) GetDownloadURL(ctx context.Context, id string) (string, error) {
	key, err := s.findKey(ctx, id)
	if err != nil {
		return "", err
	}

	req, err := s.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("%w: presign: %w", models.ErrIOFailure, err)
	}
	return req.URL, nil
}

// DeleteApp ignores unknown ids.
func (s *S3Backend) DeleteApp(ctx context.Context, id string) error {
	key, err := s.findKey(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	logger := logrus.WithFields(logrus.Fields{
		"key":    key,
		"bucket": s.Bucket,
	})
	if _, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		logger.WithError(err).Error("Error deleting file")
		return fmt.Errorf("%w: delete object: %w", models.ErrIOFailure, err)
	}

	logger.Info("Deleted file successfully")
	return nil
}

// findKey resolves an app id to its object key. Only canonical UUIDs are
// accepted, so the "<prefix><id>-" prefix matches at most one object and a
// partial id never matches another app.
func (s *S3Backend) findKey(ctx context.Context, id string) (string, error) {
	if parsed, err := uuid.Parse(id); err != nil || parsed.String() != id {
		return "", fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	out, err := s.Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.Bucket),
		Prefix:  aws.String(objectPrefix + id + "-"),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("%w: list objects: %w", models.ErrIOFailure, err)
	}
	if len(out.Contents) == 0 {
		return "", fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return aws.ToString(out.Contents[0].Key), nil
}

// Header values must be ASCII, so free text is query-escaped.
func objectMetadata(r models.AppRecord) map[string]string {
	meta := map[string]string{
		metaID:         r.ID,
		metaName:       url.QueryEscape(r.Name),
		metaVersion:    url.QueryEscape(r.Version),
		metaUploadedAt: strconv.FormatInt(r.UploadedAt, 10),
	}
	if r.Description != "" {
		meta[metaDescription] = url.QueryEscape(r.Description)
	}
	if r.Icon != "" {
		meta[metaIcon] = url.QueryEscape(r.Icon)
	}
	return meta
}

func recordFromObject(key string, size int64, meta map[string]string) models.AppRecord {
	filename := strings.TrimPrefix(key, objectPrefix)
	unescape := func(k string) string {
		v, err := url.QueryUnescape(meta[k])
		if err != nil {
			return meta[k]
		}
		return v
	}

	r := models.AppRecord{
		ID:          meta[metaID],
		Name:        unescape(metaName),
		Version:     unescape(metaVersion),
		Size:        size,
		Description: unescape(metaDescription),
		Icon:        unescape(metaIcon),
		Filename:    filename,
	}
	r.UploadedAt, _ = strconv.ParseInt(meta[metaUploadedAt], 10, 64)
	if r.ID == "" && len(filename) > 36 {
		r.ID = filename[:36]
	}
	if r.Name == "" {
		r.Name = filename
	}
	if r.Version == "" {
		r.Version = models.DefaultVersion
	}
	return r
}
