package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testS3Config() S3Config {
	return S3Config{
		User:         "minioadmin",
		Password:     "minioadmin",
		Bucket:       "media",
		Region:       "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000/",
	}
}

func stubAWS(t *testing.T) *s3.Options {
	t.Helper()

	origLoad, origNew, origPut := loadDefaultAWSConfig, newS3ClientFromConfig, putObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		putObject = origPut
	})

	captured := &s3.Options{}
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(captured)
		}
		return &s3.Client{}
	}
	return captured
}

func stage(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewS3Store_ConfiguresClient(t *testing.T) {
	opts := stubAWS(t)

	_, err := NewS3Store(context.Background(), testS3Config())
	require.NoError(t, err)

	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000/", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Store_LoadError(t *testing.T) {
	stubAWS(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := NewS3Store(context.Background(), testS3Config())
	assert.EqualError(t, err, "load-fail")
}

func TestStore_UploadsAndRemovesLocalFile(t *testing.T) {
	stubAWS(t)

	var gotBody string
	var gotIn *s3.PutObjectInput
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		b, err := io.ReadAll(in.Body)
		require.NoError(t, err)
		gotBody, gotIn = string(b), in
		return &s3.PutObjectOutput{}, nil
	}

	st, err := NewS3Store(context.Background(), testS3Config())
	require.NoError(t, err)
	st.now = func() time.Time { return time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC) }

	path := stage(t, "Avatar.PNG", "pixels")
	asset, err := st.Store(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "pixels", gotBody)
	assert.Equal(t, "media", *gotIn.Bucket)
	assert.Equal(t, "image/png", *gotIn.ContentType)
	assert.Regexp(t, regexp.MustCompile(`^media/2026/03/07/[0-9a-f-]{36}\.png$`), asset.Key)
	assert.Equal(t, "http://127.0.0.1:9000/media/"+asset.Key, asset.URL)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "local file must be removed after upload")
}

func TestStore_FailureWrapsAndStillRemoves(t *testing.T) {
	stubAWS(t)
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("bucket gone")
	}

	st, err := NewS3Store(context.Background(), testS3Config())
	require.NoError(t, err)

	path := stage(t, "cover.jpg", "x")
	_, err = st.Store(context.Background(), path)

	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUploadFailed))
	assert.True(t, IsUploadFailed(err))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "local file must be removed after a failed upload")
}

func TestStore_MissingFile(t *testing.T) {
	stubAWS(t)

	st, err := NewS3Store(context.Background(), testS3Config())
	require.NoError(t, err)

	_, err = st.Store(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrUploadFailed)

	_, err = st.Store(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, common.ErrUploadFailed)
}
