package extractor

import "errors"

var (
	// ErrUnsupportedFormat rejects a document whose format has no extraction
	// strategy. The document is refused outright.
	ErrUnsupportedFormat = errors.New("extractor: unsupported document format")

	// ErrCorruptDocument is returned when every page of a document failed to
	// yield text through both direct extraction and the OCR fallback.
	ErrCorruptDocument = errors.New("extractor: document unreadable on every page")
)
