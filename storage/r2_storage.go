package storage

import (
	"context"
	"fmt"

	"AppMovin/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

func (c R2Config) Validate() error {
	if c.AccountID == "" {
		return fmt.Errorf("%w: account ID is required", models.ErrConfiguration)
	}
	if c.AccessKeyID == "" {
		return fmt.Errorf("%w: access key ID is required", models.ErrConfiguration)
	}
	if c.SecretAccessKey == "" {
		return fmt.Errorf("%w: secret access key is required", models.ErrConfiguration)
	}
	if c.Bucket == "" {
		return fmt.Errorf("%w: bucket name is required", models.ErrConfiguration)
	}
	return nil
}

func (c R2Config) Endpoint() string {
	return "https://" + c.AccountID + ".r2.cloudflarestorage.com"
}

// NewR2Backend builds an S3Backend against a Cloudflare R2 bucket.
func NewR2Backend(ctx context.Context, cfg R2Config) (*S3Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds := aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		}, nil
	})

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(creds),
	)
	if err != nil {
		logrus.Errorf("Failed to load Cloudflare R2 configuration: %v", err)
		return nil, fmt.Errorf("%w: %w", models.ErrConfiguration, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint())
	})

	logrus.Info("Successfully configured R2 storage")
	return NewS3Backend(client, s3.NewPresignClient(client), cfg.Bucket), nil
}
