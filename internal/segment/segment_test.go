package segment

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRemoveBackground(t *testing.T) {
	want := []byte("png-with-alpha")
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "image/png")
		w.Write(want)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zerolog.Nop())
	out, err := c.RemoveBackground(context.Background(), []byte("input-image"))
	if err != nil {
		t.Fatalf("RemoveBackground failed: %v", err)
	}
	if string(out) != string(want) {
		t.Errorf("output: got %q, want %q", out, want)
	}
	if string(gotBody) != "input-image" {
		t.Errorf("request body: got %q, want the input bytes", gotBody)
	}
}

func TestRemoveBackgroundNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zerolog.Nop())
	_, err := c.RemoveBackground(context.Background(), []byte("x"))
	if !errors.Is(err, ErrSegmentationFailed) {
		t.Errorf("got %v, want ErrSegmentationFailed", err)
	}
}

func TestRemoveBackgroundEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zerolog.Nop())
	_, err := c.RemoveBackground(context.Background(), []byte("x"))
	if !errors.Is(err, ErrSegmentationFailed) {
		t.Errorf("got %v, want ErrSegmentationFailed", err)
	}
}

func TestRemoveBackgroundUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second, zerolog.Nop())
	_, err := c.RemoveBackground(context.Background(), []byte("x"))
	if !errors.Is(err, ErrSegmentationFailed) {
		t.Errorf("got %v, want ErrSegmentationFailed", err)
	}
}
