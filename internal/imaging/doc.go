// Package imaging implements the image transformation pipeline and its
// content-addressed result cache.
//
// The central type is Service: it resolves a Source (local path, remote
// URL, or in-memory bytes) into decodable bytes, derives a cache key
// from the source identity and the full parameter set, and either
// returns a cached result or runs the pipeline and stores the output.
//
// # Stage Order
//
// Transformation stages run in a fixed sequence that callers cannot
// reorder:
//
//  1. Color normalization (flatten alpha/palette onto opaque white)
//  2. Crop
//  3. Resize
//  4. Rotate
//  5. Grayscale
//  6. Watermark
//  7. Enhance
//  8. Encode + compress
//
// Crop and resize run before rotate and watermark so the expensive
// stages operate on the smallest possible canvas. The ordering is
// observable (the watermark is placed on the rotated canvas) and is
// covered by tests.
//
// # Caching
//
// The ResultCache memoizes (source, parameters) pairs up to a bounded
// capacity, evicting the oldest-inserted entry when full. Entries are
// immutable; lookups return defensive copies. Determinism of the
// pipeline guarantees bit-identical bytes for a key until eviction.
//
// # Thread Safety
//
// Service methods may be called concurrently. Pipeline runs never
// share image buffers; the result cache is the only shared mutable
// state and serializes its own access.
//
// # Error Handling
//
// Failures surface as wrapped sentinel errors: ErrValidation,
// ErrDecode, ErrEncode, ErrSourceUnavailable. No partial output is
// ever returned, and a failed transformation never populates the
// cache. The only internal recovery is the watermark font fallback,
// which cannot fail a request.
package imaging
