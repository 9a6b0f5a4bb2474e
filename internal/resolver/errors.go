package resolver

import "errors"

var (
	// ErrUnsupportedMediaType means the item is not an image the service can serve.
	// Callers fall back to the host's own image handling.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrLookupUnavailable means no backend produced a serving URL.
	ErrLookupUnavailable = errors.New("serving url unavailable")

	// ErrLookupTransport wraps network and decoding failures talking to a backend.
	// It is always reported together with ErrLookupUnavailable.
	ErrLookupTransport = errors.New("serving url lookup failed")
)

// IsFallback reports whether err means "no base URL, use the native image pipeline".
func IsFallback(err error) bool {
	return errors.Is(err, ErrUnsupportedMediaType) || errors.Is(err, ErrLookupUnavailable)
}
