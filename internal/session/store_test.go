package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/joshp123/hive-heat/internal/config"
)

type memoryBlobStore struct {
	data    map[string][]byte
	saveErr error
}

func (m *memoryBlobStore) Load(_ context.Context, name string) ([]byte, error) {
	if m.data != nil {
		if data, ok := m.data[name]; ok {
			return data, nil
		}
	}
	return nil, ErrBlobNotFound
}

func (m *memoryBlobStore) Save(_ context.Context, name string, data []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[name] = data
	return nil
}

func (m *memoryBlobStore) Delete(_ context.Context, name string) error {
	delete(m.data, name)
	return nil
}

func TestFileStoreFirstRun(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "token"))
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), ".hive-heat", "token")
	store := NewFileStore(path)

	if err := store.Save(ctx, "first"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, "second"); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("token file should hold the raw token, got %q", string(data))
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected mode %v", info.Mode().Perm())
	}

	token, err := store.Load(ctx)
	if err != nil || token != "second" {
		t.Fatalf("load: %q %v", token, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear should be a no-op: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound after clear, got %v", err)
	}
}

func TestFileStoreTrimsAndTreatsEmptyAsAbsent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token")
	store := NewFileStore(path)

	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected empty file to count as absent, got %v", err)
	}

	if err := os.WriteFile(path, []byte("abc123\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	token, err := store.Load(ctx)
	if err != nil || token != "abc123" {
		t.Fatalf("load: %q %v", token, err)
	}
}

func TestFileStoreSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(filepath.Join(blocker, "token"))
	if err := store.Save(context.Background(), "tok"); err == nil {
		t.Fatalf("expected save into a non-directory to fail")
	}
}

func TestMirroredStoreRestoresFromBlob(t *testing.T) {
	ctx := context.Background()
	local := NewFileStore(filepath.Join(t.TempDir(), "token"))
	blob := &memoryBlobStore{data: map[string][]byte{blobName: []byte("mirrored\n")}}
	store := NewMirroredStore(local, blob, nil)

	token, err := store.Load(ctx)
	if err != nil || token != "mirrored" {
		t.Fatalf("load: %q %v", token, err)
	}

	seeded, err := local.Load(ctx)
	if err != nil || seeded != "mirrored" {
		t.Fatalf("local file should be re-seeded, got %q %v", seeded, err)
	}
}

func TestMirroredStoreSaveToleratesBlobFailure(t *testing.T) {
	ctx := context.Background()
	local := NewFileStore(filepath.Join(t.TempDir(), "token"))
	blob := &memoryBlobStore{saveErr: errors.New("bucket offline")}
	store := NewMirroredStore(local, blob, nil)

	if err := store.Save(ctx, "tok"); err != nil {
		t.Fatalf("mirror failure must not fail save: %v", err)
	}
	if token, _ := local.Load(ctx); token != "tok" {
		t.Fatalf("local save missing, got %q", token)
	}
}

func TestMirroredStoreClearRemovesBoth(t *testing.T) {
	ctx := context.Background()
	local := NewFileStore(filepath.Join(t.TempDir(), "token"))
	blob := &memoryBlobStore{}
	store := NewMirroredStore(local, blob, nil)

	if err := store.Save(ctx, "tok"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected nothing left after clear, got %v", err)
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw    string
		host   string
		secure bool
	}{
		{raw: "http://minio.local:9000", host: "minio.local:9000"},
		{raw: "https://s3.example.com/", host: "s3.example.com", secure: true},
		{raw: " s3.amazonaws.com ", host: "s3.amazonaws.com", secure: true},
	}
	for _, tt := range tests {
		host, secure, err := parseEndpoint(tt.raw)
		if err != nil || host != tt.host || secure != tt.secure {
			t.Errorf("parseEndpoint(%q) = %q %v %v", tt.raw, host, secure, err)
		}
	}
	if _, _, err := parseEndpoint("ftp://files.example.com"); err == nil {
		t.Fatalf("expected an error for a non-http scheme")
	}
}

func TestNewS3StoreReadsKeyFiles(t *testing.T) {
	dir := t.TempDir()
	access := filepath.Join(dir, "access")
	secret := filepath.Join(dir, "secret")
	if err := os.WriteFile(access, []byte("AKIA\n"), 0o600); err != nil {
		t.Fatalf("write access key: %v", err)
	}
	cfg := config.BlobConfig{Endpoint: "http://minio.local:9000", Bucket: "secrets", AccessKeyFile: access, SecretKeyFile: secret}

	if _, err := NewS3Store(cfg); err == nil {
		t.Fatalf("expected an error for a missing secret key file")
	}

	if err := os.WriteFile(secret, []byte("shh\n"), 0o600); err != nil {
		t.Fatalf("write secret key: %v", err)
	}
	store, err := NewS3Store(cfg)
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}
	if got := store.objectKey(blobName); got != config.DefaultBlobPrefix+"/token" {
		t.Fatalf("unexpected object key %q", got)
	}
}
