package catalogs

import (
	"net/http"

	"github.com/rs/zerolog"
)

// options is a struct that contains the options for building and loading a catalog.
type options struct {
	overlay       *DescriptionOverlay
	overlaySource *Source
	sourceName    string
	logger        *zerolog.Logger
	httpClient    *http.Client
}

// apply applies the given options.
func (o *options) apply(opts ...Option) *options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// defaults returns the default options.
func defaults() *options {
	nop := zerolog.Nop()
	return &options{
		sourceName: "catalog",
		logger:     &nop,
	}
}

// Option configures catalog construction and loading.
type Option func(*options)

// WithOverlay applies a description overlay at build time.
func WithOverlay(o *DescriptionOverlay) Option {
	return func(opts *options) {
		opts.overlay = o
	}
}

// WithOverlaySource makes Load read and apply a description overlay.
// A missing or malformed overlay is logged and skipped.
func WithOverlaySource(src Source) Option {
	return func(opts *options) {
		opts.overlaySource = &src
	}
}

// WithSourceName names the data source in error messages.
func WithSourceName(name string) Option {
	return func(opts *options) {
		if name != "" {
			opts.sourceName = name
		}
	}
}

// WithLogger sets the logger used while building and loading.
func WithLogger(logger *zerolog.Logger) Option {
	return func(opts *options) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithHTTPClient sets the client used for URL sources.
func WithHTTPClient(hc *http.Client) Option {
	return func(opts *options) {
		opts.httpClient = hc
	}
}
