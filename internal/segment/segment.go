package segment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrSegmentationFailed indicates the external segmentation call did
// not produce usable output.
var ErrSegmentationFailed = errors.New("segmentation failed")

// Client calls an external segmentation service over HTTP. The service
// receives the encoded image in the request body and responds with a
// PNG whose background pixels are transparent.
//
// Client satisfies imaging.SegmentationProvider.
type Client struct {
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

// NewClient builds a Client for the given endpoint URL.
func NewClient(endpoint string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

// RemoveBackground posts data to the segmentation service and returns
// the PNG bytes it produces.
func (c *Client) RemoveBackground(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSegmentationFailed, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "image/png")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSegmentationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d from %s", ErrSegmentationFailed, resp.StatusCode, c.endpoint)
	}
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrSegmentationFailed, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrSegmentationFailed)
	}

	c.log.Debug().Int("in_bytes", len(data)).Int("out_bytes", len(out)).
		Dur("elapsed", time.Since(start)).Msg("background removed")
	return out, nil
}
