package data

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"streamcatalog/internal/biz"
	"streamcatalog/internal/conf"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// NewBlobStore builds the media store selected by c.Driver.
func NewBlobStore(c *conf.Storage, logger log.Logger) (biz.BlobStore, error) {
	if c == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	switch c.Driver {
	case "s3":
		return newS3BlobStore(c, logger)
	case "", "local":
		return newLocalBlobStore(c, logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", c.Driver)
	}
}

// keyFromURL reverses the baseURL + "/" + key mapping of Upload.
func keyFromURL(baseURL, url string) (string, error) {
	key, ok := strings.CutPrefix(url, baseURL+"/")
	if !ok || key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("url %q is not served from %s", url, baseURL)
	}
	return key, nil
}

// objectKey places the file under folder with a unique, sortable prefix.
func objectKey(folder, filename string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, path.Base(filepath.ToSlash(filename)))
	return path.Join(folder, id.String()+"-"+name), nil
}

type s3BlobStore struct {
	client  *s3.Client
	bucket  string
	baseURL string
	log     *log.Helper
}

func newS3BlobStore(c *conf.Storage, logger log.Logger) (*s3BlobStore, error) {
	if c.Bucket == "" || c.Region == "" {
		return nil, fmt.Errorf("s3 storage needs bucket and region")
	}

	opts := s3.Options{
		Region: c.Region,
	}
	if c.AccessKey != "" {
		opts.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		)
	}

	baseURL := c.BaseUrl
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
	}

	return &s3BlobStore{
		client:  s3.New(opts),
		bucket:  c.Bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.NewHelper(logger),
	}, nil
}

func (s *s3BlobStore) Upload(ctx context.Context, folder string, file *biz.Upload) (string, error) {
	key, err := objectKey(folder, file.Filename)
	if err != nil {
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file.Body,
		ACL:    types.ObjectCannedACLPublicRead,
	}
	if file.ContentType != "" {
		input.ContentType = aws.String(file.ContentType)
	}
	if file.Size > 0 {
		input.ContentLength = aws.Int64(file.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	s.log.Debugf("uploaded %s to bucket %s", key, s.bucket)
	return s.baseURL + "/" + key, nil
}

func (s *s3BlobStore) Delete(ctx context.Context, url string) error {
	key, err := keyFromURL(s.baseURL, url)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	s.log.Debugf("deleted %s from bucket %s", key, s.bucket)
	return nil
}

type localBlobStore struct {
	root    string
	baseURL string
	log     *log.Helper
}

func newLocalBlobStore(c *conf.Storage, logger log.Logger) (*localBlobStore, error) {
	if c.Root == "" {
		return nil, fmt.Errorf("local storage needs a root directory")
	}
	if err := os.MkdirAll(c.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &localBlobStore{
		root:    c.Root,
		baseURL: strings.TrimRight(c.BaseUrl, "/"),
		log:     log.NewHelper(logger),
	}, nil
}

func (s *localBlobStore) Upload(ctx context.Context, folder string, file *biz.Upload) (string, error) {
	key, err := objectKey(folder, file.Filename)
	if err != nil {
		return "", err
	}

	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", folder, err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}
	if _, err := io.Copy(f, file.Body); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close %s: %w", key, err)
	}

	s.log.Debugf("stored %s", dst)
	return s.baseURL + "/" + key, nil
}

func (s *localBlobStore) Delete(ctx context.Context, url string) error {
	key, err := keyFromURL(s.baseURL, url)
	if err != nil {
		return err
	}
	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	s.log.Debugf("deleted %s", dst)
	return nil
}
