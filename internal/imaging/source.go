package imaging

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// sourceKind discriminates the three ways an image can reach the service.
type sourceKind int

const (
	sourcePath sourceKind = iota
	sourceURL
	sourceBytes
)

// Source identifies an image to transform: a local file path, a remote
// URL, or raw bytes already in memory. Construct one with FromPath,
// FromURL, or FromBytes; the zero value is not usable.
//
// A Source carries identity only. The bytes are read once, by the
// fetcher, at the start of an operation.
type Source struct {
	kind sourceKind
	path string
	url  string
	data []byte
}

// FromPath references an image on the local filesystem.
func FromPath(path string) Source { return Source{kind: sourcePath, path: path} }

// FromURL references an image behind an HTTP(S) URL.
func FromURL(url string) Source { return Source{kind: sourceURL, url: url} }

// FromBytes wraps raw encoded image bytes held in memory.
func FromBytes(data []byte) Source { return Source{kind: sourceBytes, data: data} }

// resolvedSource is a Source after fetching: decodable bytes plus a
// stable identity string used in cache keys. Two different images must
// never share an identity; in-memory buffers therefore use a content
// hash rather than a counter or pointer.
type resolvedSource struct {
	data     []byte
	identity string
}

// fetcher turns a Source into a resolvedSource. Remote fetches are
// retried a bounded number of times with a fixed backoff between
// attempts; there is no unbounded wait anywhere in this type.
type fetcher struct {
	client   *http.Client
	attempts int
	backoff  time.Duration
}

const (
	defaultFetchAttempts = 3
	defaultFetchBackoff  = 500 * time.Millisecond
)

func newFetcher(client *http.Client, attempts int, backoff time.Duration) *fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if attempts <= 0 {
		attempts = defaultFetchAttempts
	}
	if backoff < 0 {
		backoff = defaultFetchBackoff
	}
	return &fetcher{client: client, attempts: attempts, backoff: backoff}
}

// resolve reads the source bytes and derives the source identity.
//
// Identity per kind:
//   - local path: the path string
//   - URL: the URL string
//   - in-memory bytes: hex SHA-256 of the content
func (f *fetcher) resolve(ctx context.Context, src Source) (*resolvedSource, error) {
	switch src.kind {
	case sourcePath:
		data, err := os.ReadFile(src.path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrSourceUnavailable, src.path, err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: %s is empty", ErrSourceUnavailable, src.path)
		}
		return &resolvedSource{data: data, identity: src.path}, nil

	case sourceURL:
		data, err := f.fetch(ctx, src.url)
		if err != nil {
			return nil, err
		}
		return &resolvedSource{data: data, identity: src.url}, nil

	case sourceBytes:
		if len(src.data) == 0 {
			return nil, fmt.Errorf("%w: empty byte buffer", ErrSourceUnavailable)
		}
		sum := sha256.Sum256(src.data)
		return &resolvedSource{data: src.data, identity: "sha256:" + hex.EncodeToString(sum[:])}, nil

	default:
		return nil, fmt.Errorf("%w: unset source", ErrSourceUnavailable)
	}
}

// fetch downloads url, retrying on transport errors, non-2xx statuses,
// and empty bodies. After the final attempt the failure surfaces as
// ErrSourceUnavailable.
func (f *fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, ctx.Err())
			case <-time.After(f.backoff):
			}
		}

		data, err := f.fetchOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: fetch %s after %d attempts: %v", ErrSourceUnavailable, url, f.attempts, lastErr)
}

func (f *fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	return data, nil
}
