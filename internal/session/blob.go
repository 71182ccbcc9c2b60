package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/joshp123/hive-heat/internal/config"
	"github.com/joshp123/hive-heat/internal/logger"
)

var ErrBlobNotFound = errors.New("session blob not found")

const blobName = "token"

// BlobStore mirrors the token to object storage.
type BlobStore interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

// S3Store keeps mirrored session objects under one prefix of an
// S3-compatible bucket.
type S3Store struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewS3Store(cfg config.BlobConfig) (*S3Store, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 mirror: bucket is required")
	}
	host, secure, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	creds, err := staticCredentials(cfg.AccessKeyFile, cfg.SecretKeyFile)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{Creds: creds, Secure: secure, Region: strings.TrimSpace(cfg.Region)})
	if err != nil {
		return nil, fmt.Errorf("s3 mirror: %w", err)
	}

	store := &S3Store{client: client, bucket: bucket, prefix: strings.Trim(cfg.Prefix, "/ ")}
	if store.prefix == "" {
		store.prefix = config.DefaultBlobPrefix
	}
	return store, nil
}

// Load reads an object. GetObject is lazy, so a missing key only surfaces
// once the body is read.
func (s *S3Store) Load(ctx context.Context, name string) ([]byte, error) {
	key := s.objectKey(name)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err == nil {
		defer obj.Close()
		var data []byte
		if data, err = io.ReadAll(obj); err == nil {
			return data, nil
		}
	}
	return nil, objectError("get", key, err)
}

func (s *S3Store) Save(ctx context.Context, name string, data []byte) error {
	key := s.objectKey(name)
	opts := minio.PutObjectOptions{ContentType: "text/plain"}
	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return objectError("put", key, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, name string) error {
	key := s.objectKey(name)
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return objectError("delete", key, err)
	}
	return nil
}

func (s *S3Store) objectKey(name string) string {
	return s.prefix + "/" + name
}

func objectError(op, key string, err error) error {
	if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return ErrBlobNotFound
	}
	return fmt.Errorf("s3 %s %s: %w", op, key, err)
}

// MirroredStore keeps the local file authoritative and mirrors it to a
// BlobStore. Mirror failures are logged and never fail the run.
type MirroredStore struct {
	local Store
	blob  BlobStore
	log   *logger.Logger
}

func NewMirroredStore(local Store, blob BlobStore, log *logger.Logger) *MirroredStore {
	if log == nil {
		log = logger.Nop()
	}
	return &MirroredStore{local: local, blob: blob, log: log}
}

func (m *MirroredStore) Load(ctx context.Context) (string, error) {
	token, err := m.local.Load(ctx)
	if !errors.Is(err, ErrTokenNotFound) {
		return token, err
	}

	data, blobErr := m.blob.Load(ctx, blobName)
	if blobErr != nil {
		if !errors.Is(blobErr, ErrBlobNotFound) {
			remotePersistOK.Set(0)
			m.log.Warnw("token mirror unavailable", "err", blobErr)
		}
		return "", ErrTokenNotFound
	}
	token = strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrTokenNotFound
	}

	m.log.Debugw("restored token from mirror")
	if err := m.local.Save(ctx, token); err != nil {
		m.log.Warnw("re-seed local token failed", "err", err)
	}
	return token, nil
}

func (m *MirroredStore) Save(ctx context.Context, token string) error {
	if err := m.local.Save(ctx, token); err != nil {
		return err
	}
	if err := m.blob.Save(ctx, blobName, []byte(token)); err != nil {
		remotePersistOK.Set(0)
		m.log.Warnw("token mirror write failed", "err", err)
		return nil
	}
	remotePersistOK.Set(1)
	return nil
}

func (m *MirroredStore) Clear(ctx context.Context) error {
	if err := m.local.Clear(ctx); err != nil {
		return err
	}
	if err := m.blob.Delete(ctx, blobName); err != nil && !errors.Is(err, ErrBlobNotFound) {
		remotePersistOK.Set(0)
		m.log.Warnw("token mirror delete failed", "err", err)
	}
	return nil
}

// parseEndpoint accepts a bare host (TLS assumed) or an http(s) URL.
func parseEndpoint(raw string) (host string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	switch {
	case err != nil:
		return "", false, fmt.Errorf("s3 mirror endpoint: %w", err)
	case u.Host == "":
		return "", false, fmt.Errorf("s3 mirror endpoint has no host: %q", raw)
	case u.Scheme != "http" && u.Scheme != "https":
		return "", false, fmt.Errorf("s3 mirror endpoint scheme %q", u.Scheme)
	}
	return u.Host, u.Scheme == "https", nil
}

// staticCredentials builds S3 credentials from two key files, one secret
// per file.
func staticCredentials(accessKeyFile, secretKeyFile string) (*credentials.Credentials, error) {
	keys := [2]string{}
	for i, file := range []string{accessKeyFile, secretKeyFile} {
		data, err := os.ReadFile(strings.TrimSpace(file))
		if err != nil {
			return nil, fmt.Errorf("s3 mirror key: %w", err)
		}
		if keys[i] = strings.TrimSpace(string(data)); keys[i] == "" {
			return nil, fmt.Errorf("s3 mirror key file %s is empty", file)
		}
	}
	return credentials.NewStaticV4(keys[0], keys[1], ""), nil
}
