package imaging

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// SegmentationProvider produces a copy of an encoded image with the
// background made transparent. Implementations call out to an external
// segmentation model; the core supplies none of its own so tests can
// inject a stub.
type SegmentationProvider interface {
	RemoveBackground(ctx context.Context, data []byte) ([]byte, error)
}

// Thumbnail sizes accepted on either axis.
const (
	ThumbnailMinSize = 1
	ThumbnailMaxSize = 1000
)

// Service is the transformation entry point: a pipeline executor
// fronted by a content-addressed result cache, plus the thumbnail,
// info, and background-removal operations.
//
// A Service is safe for concurrent use. Each call runs its pipeline on
// private data; only the result cache is shared, and it guards itself.
type Service struct {
	fetch     *fetcher
	cache     *ResultCache
	segmenter SegmentationProvider
	log       zerolog.Logger
}

// Options configures a Service. The zero value is usable: default
// fetch policy, default cache capacity, no segmentation provider,
// logging disabled.
type Options struct {
	// HTTPClient fetches remote sources. Defaults to a client with a
	// 30s timeout.
	HTTPClient *http.Client

	// FetchAttempts bounds remote fetch retries (default 3).
	FetchAttempts int

	// FetchBackoff is the fixed delay between fetch attempts.
	FetchBackoff time.Duration

	// CacheCapacity bounds the result cache (default 100 entries).
	CacheCapacity int

	// Segmenter handles RemoveBackground. Calls fail when nil.
	Segmenter SegmentationProvider

	Logger zerolog.Logger
}

// NewService builds a Service from opts.
func NewService(opts Options) *Service {
	return &Service{
		fetch:     newFetcher(opts.HTTPClient, opts.FetchAttempts, opts.FetchBackoff),
		cache:     NewResultCache(opts.CacheCapacity),
		segmenter: opts.Segmenter,
		log:       opts.Logger,
	}
}

// Transform applies params to src and returns the encoded output.
//
// Results are memoized: the cache key covers the source identity and
// every parameter field, so a repeated (source, params) pair returns
// the cached bytes without re-running the pipeline. A failed
// transformation never populates the cache.
func (s *Service) Transform(ctx context.Context, src Source, params TransformParams) (*Result, error) {
	p := params.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	rs, err := s.fetch.resolve(ctx, src)
	if err != nil {
		return nil, err
	}

	key := buildCacheKey(rs.identity, p)
	if data, format, ok := s.cache.Lookup(key); ok {
		s.log.Debug().Str("key", key.String()).Msg("transform cache hit")
		return &Result{Bytes: data, Format: format, Cached: true}, nil
	}

	res, err := runPipeline(rs.data, p)
	if err != nil {
		return nil, err
	}
	s.cache.Insert(key, res.Bytes, res.Format)
	s.log.Debug().Str("key", key.String()).Str("format", res.Format).
		Int("bytes", len(res.Bytes)).Msg("transform computed")
	return res, nil
}

// Thumbnail scales src down to fit within width x height, preserving
// aspect ratio and never upscaling. Output dimensions never exceed the
// requested box on either axis. The result keeps the source's native
// format where encodable.
func (s *Service) Thumbnail(ctx context.Context, src Source, width, height int) (*Result, error) {
	if width < ThumbnailMinSize || width > ThumbnailMaxSize ||
		height < ThumbnailMinSize || height > ThumbnailMaxSize {
		return nil, fmt.Errorf("%w: thumbnail size %dx%d not in [%d,%d]",
			ErrValidation, width, height, ThumbnailMinSize, ThumbnailMaxSize)
	}

	rs, err := s.fetch.resolve(ctx, src)
	if err != nil {
		return nil, err
	}
	img, native, err := decodeImage(rs.data)
	if err != nil {
		return nil, err
	}

	thumb := fitWithin(img, width, height)
	format := resolveFormat("", native)
	out, err := encode(thumb, format, DefaultQuality)
	if err != nil {
		return nil, err
	}
	return &Result{Bytes: out, Format: format}, nil
}

// RemoveBackground delegates src to the segmentation provider and
// returns the result, re-encoded to format when one is given ("png"
// otherwise). The call is not cached and runs outside the
// transformation pipeline.
func (s *Service) RemoveBackground(ctx context.Context, src Source, format string) (*Result, error) {
	if s.segmenter == nil {
		return nil, fmt.Errorf("no segmentation provider configured")
	}
	if format == "" {
		format = FormatPNG
	}
	format = normalizeFormat(format)
	if !encodableFormat(format) {
		return nil, fmt.Errorf("%w: format %q not in {jpeg, png, webp}", ErrValidation, format)
	}

	rs, err := s.fetch.resolve(ctx, src)
	if err != nil {
		return nil, err
	}

	cut, err := s.segmenter.RemoveBackground(ctx, rs.data)
	if err != nil {
		return nil, err
	}
	if format == FormatPNG {
		// Provider output is PNG with alpha already.
		return &Result{Bytes: cut, Format: FormatPNG}, nil
	}

	img, _, err := decodeImage(cut)
	if err != nil {
		return nil, err
	}
	out, err := encode(img, format, DefaultQuality)
	if err != nil {
		return nil, err
	}
	return &Result{Bytes: out, Format: format}, nil
}

// Info reports the source's format, dimensions, and byte size without
// a full decode. With analyze set it additionally decodes the pixels
// and computes the average color.
func (s *Service) Info(ctx context.Context, src Source, analyze bool) (*SourceInfo, error) {
	rs, err := s.fetch.resolve(ctx, src)
	if err != nil {
		return nil, err
	}
	info, err := probeInfo(rs.data)
	if err != nil {
		return nil, err
	}
	if analyze {
		img, _, err := decodeImage(rs.data)
		if err != nil {
			return nil, err
		}
		c := averageColor(img)
		info.AverageColor = &c
	}
	return info, nil
}

// CacheLen reports how many transformation results are currently held.
func (s *Service) CacheLen() int { return s.cache.Len() }
