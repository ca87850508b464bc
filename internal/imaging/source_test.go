package imaging

import (
	"context"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestResolveBytes(t *testing.T) {
	f := newFetcher(nil, 1, 0)
	data := encodeTestPNG(t, createTestImage(4, 4, color.NRGBA{R: 255, A: 255}))

	rs, err := f.resolve(context.Background(), FromBytes(data))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if string(rs.data) != string(data) {
		t.Error("resolved bytes differ from input")
	}

	// Identity is content-addressed: same bytes, same identity.
	rs2, _ := f.resolve(context.Background(), FromBytes(data))
	if rs.identity != rs2.identity {
		t.Errorf("identity unstable: %q vs %q", rs.identity, rs2.identity)
	}

	other := encodeTestPNG(t, createTestImage(4, 4, color.NRGBA{G: 255, A: 255}))
	rs3, _ := f.resolve(context.Background(), FromBytes(other))
	if rs.identity == rs3.identity {
		t.Error("different content must have different identities")
	}
}

func TestResolveEmptyBytes(t *testing.T) {
	f := newFetcher(nil, 1, 0)
	_, err := f.resolve(context.Background(), FromBytes(nil))
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("got %v, want ErrSourceUnavailable", err)
	}
}

func TestResolvePath(t *testing.T) {
	data := encodeTestPNG(t, createTestImage(4, 4, color.NRGBA{B: 255, A: 255}))
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	f := newFetcher(nil, 1, 0)
	rs, err := f.resolve(context.Background(), FromPath(path))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if rs.identity != path {
		t.Errorf("identity: got %q, want %q", rs.identity, path)
	}
}

func TestResolveMissingPath(t *testing.T) {
	f := newFetcher(nil, 1, 0)
	_, err := f.resolve(context.Background(), FromPath(filepath.Join(t.TempDir(), "nope.png")))
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("got %v, want ErrSourceUnavailable", err)
	}
}

func TestFetchURL(t *testing.T) {
	data := encodeTestPNG(t, createTestImage(4, 4, color.NRGBA{A: 255}))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	f := newFetcher(srv.Client(), 3, 0)
	rs, err := f.resolve(context.Background(), FromURL(srv.URL))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if string(rs.data) != string(data) {
		t.Error("fetched bytes differ from served bytes")
	}
	if rs.identity != srv.URL {
		t.Errorf("identity: got %q, want the URL", rs.identity)
	}
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	data := encodeTestPNG(t, createTestImage(4, 4, color.NRGBA{A: 255}))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	f := newFetcher(srv.Client(), 3, 0)
	if _, err := f.resolve(context.Background(), FromURL(srv.URL)); err != nil {
		t.Fatalf("resolve should succeed on the third attempt: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("attempts: got %d, want 3", got)
	}
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newFetcher(srv.Client(), 3, 0)
	_, err := f.resolve(context.Background(), FromURL(srv.URL))
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("got %v, want ErrSourceUnavailable", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("attempts: got %d, want exactly 3 (bounded retries)", got)
	}
}

func TestFetchEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newFetcher(srv.Client(), 2, 0)
	_, err := f.resolve(context.Background(), FromURL(srv.URL))
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("empty body: got %v, want ErrSourceUnavailable", err)
	}
}
