// Package media hands locally staged uploads to object storage and returns
// the public reference stored on the identity.
package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/filex"
	"github.com/google/uuid"
)

// Asset is a stored object.
type Asset struct {
	Key string
	URL string
}

// Store uploads the file at localPath. The local file is consumed: it is
// removed whether or not the upload succeeds. Failures wrap
// common.ErrUploadFailed.
type Store interface {
	Store(ctx context.Context, localPath string) (*Asset, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

type S3Config struct {
	User         string
	Password     string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3Store writes objects to an S3-compatible backend (MinIO in development)
// using path-style addressing.
type S3Store struct {
	client *s3.Client
	cfg    S3Config
	now    func() time.Time
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.User,
			cfg.Password,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{client: client, cfg: cfg, now: time.Now}, nil
}

// objectKey returns media/<yyyy>/<mm>/<dd>/<uuid><ext>.
func (s *S3Store) objectKey(localPath string) string {
	d := s.now().UTC()
	ext := strings.ToLower(filepath.Ext(localPath))
	return fmt.Sprintf("media/%04d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

// URL is the public path-style address of key.
func (s *S3Store) URL(key string) string {
	return strings.TrimRight(s.cfg.BaseEndpoint, "/") + "/" + s.cfg.Bucket + "/" + key
}

func (s *S3Store) Store(ctx context.Context, localPath string) (*Asset, error) {
	defer filex.RemoveQuietly(localPath)

	if localPath == "" {
		return nil, fmt.Errorf("%w: no file", common.ErrUploadFailed)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
	}
	defer f.Close()

	key := s.objectKey(localPath)
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(localPath))); ct != "" {
		in.ContentType = aws.String(ct)
	}

	if _, err := putObject(s.client, ctx, in); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
	}

	return &Asset{Key: key, URL: s.URL(key)}, nil
}

// IsUploadFailed reports whether err came from a media store.
func IsUploadFailed(err error) bool {
	return errors.Is(err, common.ErrUploadFailed)
}
