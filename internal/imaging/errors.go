package imaging

import "errors"

// Sentinel errors for the failure modes a transformation can hit.
// Callers classify with errors.Is; the concrete message carries detail.
var (
	// ErrValidation indicates a caller-supplied parameter is out of
	// contract (bad crop bounds, rotation angle, quality range, format).
	// Always recoverable by correcting the input.
	ErrValidation = errors.New("invalid transform parameters")

	// ErrDecode indicates the source bytes are not a decodable image.
	ErrDecode = errors.New("image decode failed")

	// ErrEncode indicates the target format could not be encoded.
	ErrEncode = errors.New("image encode failed")

	// ErrSourceUnavailable indicates a remote source could not be
	// fetched after the configured number of attempts, or returned an
	// empty body.
	ErrSourceUnavailable = errors.New("source unavailable")
)
