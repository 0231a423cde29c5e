package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type object struct {
	data        []byte
	contentType string
}

// fakeS3 is a minimal path-style S3 endpoint for a single bucket.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]object
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	prefix := "/" + f.bucket + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchBucket</Code><Message>no bucket</Message></Error>`)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, prefix)

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = object{data: body, contentType: r.Header.Get("Content-Type")}
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", obj.contentType)
		w.Write(obj.data)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeS3) {
	t.Helper()
	fake := &fakeS3{bucket: "eyewear", objects: map[string]object{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(Options{
		Endpoint:  srv.URL + "/",
		Region:    "us-east-1",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "eyewear",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, fake
}

func TestNewWithoutCredentials(t *testing.T) {
	c, err := New(Options{Region: "us-east-1", Bucket: "b"})
	if err != nil || c != nil {
		t.Fatalf("New without credentials = %v, %v; want nil, nil", c, err)
	}
}

func TestNewRequiresRegion(t *testing.T) {
	_, err := New(Options{AccessKey: "a", SecretKey: "s", Bucket: "b"})
	if err == nil {
		t.Fatal("expected error for missing region")
	}
}

func TestPutGetDelete(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	key, err := c.Put(ctx, "products/1-abc.png", "image/png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if key != "products/1-abc.png" {
		t.Errorf("Put returned key %q", key)
	}
	if _, ok := fake.objects["products/1-abc.png"]; !ok {
		t.Fatal("object not stored at path-style key")
	}

	data, contentType, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("Get data = %q", data)
	}
	if contentType != "image/png" {
		t.Errorf("Get content type = %q", contentType)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := c.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete: got %v, want ErrNotFound", err)
	}
}

func TestGetMissingKey(t *testing.T) {
	c, _ := newTestClient(t)

	_, _, err := c.Get(context.Background(), "products/missing.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestBucket(t *testing.T) {
	c, _ := newTestClient(t)
	if c.Bucket() != "eyewear" {
		t.Errorf("Bucket() = %q", c.Bucket())
	}
}
