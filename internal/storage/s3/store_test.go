package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/clipquery/clipquery/internal/config"
	"github.com/clipquery/clipquery/internal/storage"
)

func TestGetCleansKey(t *testing.T) {
	api := &fakeAPI{objects: map[string]string{"datasets/videos.json": `{"videos":[]}`}}
	store := mustStore(t, api)

	reader, err := store.Get(context.Background(), "/datasets//videos.json")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer func() { _ = reader.Close() }()
	body, _ := io.ReadAll(reader)
	if string(body) != `{"videos":[]}` {
		t.Fatalf("body = %q", body)
	}
	if api.lastBucket != "clipquery" {
		t.Fatalf("bucket = %q", api.lastBucket)
	}
}

func TestMissingObjectKeepsSentinelAndLocation(t *testing.T) {
	store := mustStore(t, &fakeAPI{})

	_, err := store.Get(context.Background(), "missing.json")
	if !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Get() error = %v, want ErrObjectNotFound", err)
	}
	if !strings.Contains(err.Error(), "s3://clipquery/missing.json") {
		t.Fatalf("Get() error = %q, want object location", err)
	}
	if _, err := store.Stat(context.Background(), "missing.json"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Stat() error = %v, want ErrObjectNotFound", err)
	}
}

func TestPutRejectsKeysOutsideBucket(t *testing.T) {
	store := mustStore(t, &fakeAPI{})
	for _, key := range []string{"../secrets.txt", "a/../../b", "  ", "/"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), 1, storage.PutOptions{}); err == nil {
			t.Fatalf("Put(%q) expected error", key)
		}
	}
}

func TestPutDefaultsToJSONContentType(t *testing.T) {
	api := &fakeAPI{}
	store := mustStore(t, api)

	info, err := store.Put(context.Background(), "generated/videos.json", strings.NewReader("{}"), 2, storage.PutOptions{})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if info.Key != "generated/videos.json" || api.objects["generated/videos.json"] != "{}" {
		t.Fatalf("info = %+v objects = %v", info, api.objects)
	}
	if api.lastContentType != "application/json" {
		t.Fatalf("content type = %q", api.lastContentType)
	}

	if _, err := store.Put(context.Background(), "generated/videos.parquet", strings.NewReader("PAR1"), 4, storage.PutOptions{ContentType: "application/vnd.apache.parquet"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if api.lastContentType != "application/vnd.apache.parquet" {
		t.Fatalf("content type = %q", api.lastContentType)
	}
}

func TestEnsureBucket(t *testing.T) {
	tests := []struct {
		name     string
		api      *fakeAPI
		wantMake bool
		wantErr  bool
	}{
		{name: "exists", api: &fakeAPI{bucketExists: true}},
		{name: "missing", api: &fakeAPI{}, wantMake: true},
		{name: "created concurrently", api: &fakeAPI{makeErr: errBucketOwned}, wantMake: true},
		{name: "create fails", api: &fakeAPI{makeErr: errors.New("access denied")}, wantMake: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mustStore(t, tt.api)
			err := store.ensureBucket(context.Background(), "us-east-1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ensureBucket() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.api.makeCalled != tt.wantMake {
				t.Fatalf("MakeBucket called = %v, want %v", tt.api.makeCalled, tt.wantMake)
			}
		})
	}
}

func TestConfigHostAndTLS(t *testing.T) {
	tests := []struct {
		cfg        Config
		wantHost   string
		wantSecure bool
		wantErr    bool
	}{
		{cfg: Config{Endpoint: "https://minio.example.com"}, wantHost: "minio.example.com", wantSecure: true},
		{cfg: Config{Endpoint: "http://minio:9000"}, wantHost: "minio:9000"},
		{cfg: Config{Endpoint: "localhost:9000", UseSSL: true}, wantHost: "localhost:9000", wantSecure: true},
		{cfg: Config{Endpoint: " "}, wantErr: true},
		{cfg: Config{Endpoint: "https://"}, wantErr: true},
	}
	for _, tt := range tests {
		host, secure, err := tt.cfg.hostAndTLS()
		if (err != nil) != tt.wantErr {
			t.Fatalf("hostAndTLS(%q) error = %v", tt.cfg.Endpoint, err)
		}
		if host != tt.wantHost || secure != tt.wantSecure {
			t.Fatalf("hostAndTLS(%q) = %q/%v", tt.cfg.Endpoint, host, secure)
		}
	}
}

func TestTranslateErr(t *testing.T) {
	if err := translateErr(minio.ErrorResponse{Code: "NoSuchKey"}); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("NoSuchKey = %v", err)
	}
	if err := translateErr(minio.ErrorResponse{Code: "NoSuchBucket"}); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("NoSuchBucket = %v", err)
	}
	if err := translateErr(minio.ErrorResponse{Code: "BucketAlreadyOwnedByYou"}); !errors.Is(err, errBucketOwned) {
		t.Fatalf("BucketAlreadyOwnedByYou = %v", err)
	}
	other := errors.New("network down")
	if err := translateErr(other); !errors.Is(err, other) {
		t.Fatalf("other = %v", err)
	}
	if translateErr(nil) != nil {
		t.Fatal("nil error should stay nil")
	}
}

func TestNewStoreValidates(t *testing.T) {
	if _, err := newStore("", &fakeAPI{}); err == nil {
		t.Fatal("expected bucket error")
	}
	if _, err := newStore("clipquery", nil); err == nil {
		t.Fatal("expected client error")
	}
	if _, err := New(context.Background(), Config{Bucket: "clipquery"}); err == nil {
		t.Fatal("expected endpoint error")
	}
}

func TestConfigFor(t *testing.T) {
	cfg := ConfigFor(config.ObjectStoreConfig{Endpoint: "minio:9000", Region: "eu-west-1", AccessKeyID: "a", SecretAccessKey: "s", UseSSL: true}, "datasets")
	if cfg.Bucket != "datasets" || cfg.Endpoint != "minio:9000" || cfg.Region != "eu-west-1" || !cfg.UseSSL {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.AutoCreateBucket {
		t.Fatal("AutoCreateBucket should be opt-in")
	}
}

func mustStore(t *testing.T, api *fakeAPI) *Store {
	t.Helper()
	store, err := newStore("clipquery", api)
	if err != nil {
		t.Fatalf("newStore() error = %v", err)
	}
	return store
}

type fakeAPI struct {
	objects         map[string]string
	lastBucket      string
	lastContentType string
	bucketExists    bool
	makeCalled      bool
	makeErr         error
}

func (f *fakeAPI) PutObject(_ context.Context, bucket, key string, body io.Reader, size int64, contentType string) (storage.ObjectInfo, error) {
	f.lastBucket = bucket
	f.lastContentType = contentType
	data, _ := io.ReadAll(body)
	if f.objects == nil {
		f.objects = map[string]string{}
	}
	f.objects[key] = string(data)
	return storage.ObjectInfo{Key: key, Size: size, ETag: "etag-1"}, nil
}

func (f *fakeAPI) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	f.lastBucket = bucket
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (f *fakeAPI) StatObject(_ context.Context, _, key string) (storage.ObjectInfo, error) {
	data, ok := f.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(data)), LastModified: time.Now().UTC()}, nil
}

func (f *fakeAPI) BucketExists(context.Context, string) (bool, error) {
	return f.bucketExists, nil
}

func (f *fakeAPI) MakeBucket(context.Context, string, string) error {
	f.makeCalled = true
	return f.makeErr
}
