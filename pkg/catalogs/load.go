package catalogs

import (
	"bytes"
	"context"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/agentstation/fieldmap/internal/embedded"
	"github.com/agentstation/fieldmap/internal/transport"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// SourceKind identifies where a catalog document comes from.
type SourceKind string

// Source kinds.
const (
	SourceFile     SourceKind = "file"
	SourceURL      SourceKind = "url"
	SourceEmbedded SourceKind = "embedded"
	SourceFS       SourceKind = "fs"
)

// embeddedPrefix selects a file of the embedded sample catalog.
const embeddedPrefix = "embedded:"

// Source locates a catalog or overlay document.
type Source struct {
	Kind     SourceKind
	Location string
	fsys     fs.FS
}

// FromFile reads a document from the local filesystem.
func FromFile(path string) Source {
	return Source{Kind: SourceFile, Location: path}
}

// FromURL downloads a document over HTTP(S).
func FromURL(url string) Source {
	return Source{Kind: SourceURL, Location: url}
}

// FromFS reads name from fsys.
func FromFS(fsys fs.FS, name string) Source {
	return Source{Kind: SourceFS, Location: name, fsys: fsys}
}

// Embedded reads name from the sample catalog compiled into the binary.
func Embedded(name string) Source {
	return Source{Kind: SourceEmbedded, Location: name}
}

// ParseSource interprets a configuration value: "embedded" or
// "embedded:<file>" for the compiled-in sample, an http(s) URL, or a path.
func ParseSource(s string) Source {
	switch {
	case s == "" || s == "embedded":
		return Embedded(constants.DefaultCatalogFile)
	case strings.HasPrefix(s, embeddedPrefix):
		return Embedded(strings.TrimPrefix(s, embeddedPrefix))
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return FromURL(s)
	default:
		return FromFile(s)
	}
}

// String implements fmt.Stringer.
func (s Source) String() string {
	if s.Kind == SourceEmbedded {
		return embeddedPrefix + s.Location
	}
	return s.Location
}

// Name is a short label for logs and error messages.
func (s Source) Name() string {
	if s.Kind == SourceURL {
		return s.Location
	}
	return path.Base(s.Location)
}

// Read returns the raw document. URL sources are fetched once with the
// given client; there are no retries.
func (s Source) Read(ctx context.Context, hc *http.Client) ([]byte, error) {
	switch s.Kind {
	case SourceFile:
		data, err := os.ReadFile(s.Location)
		if err != nil {
			return nil, errors.WrapIO("read", s.Location, err)
		}
		return data, nil
	case SourceURL:
		return transport.New(transport.WithHTTPClient(hc)).GetJSON(ctx, s.Location)
	case SourceEmbedded:
		data, err := fs.ReadFile(embedded.FS, path.Join("catalog", s.Location))
		if err != nil {
			return nil, errors.WrapIO("read", s.String(), err)
		}
		return data, nil
	case SourceFS:
		if s.fsys == nil {
			return nil, errors.NewConfigError("catalog", "fs source without filesystem", nil)
		}
		data, err := fs.ReadFile(s.fsys, s.Location)
		if err != nil {
			return nil, errors.WrapIO("read", s.Location, err)
		}
		return data, nil
	default:
		return nil, errors.NewConfigError("catalog", "unknown source kind "+string(s.Kind), nil)
	}
}

// Load reads, decodes and indexes a catalog. Failures here are fatal to
// startup: there is nothing to show without a catalog.
func Load(ctx context.Context, src Source, opts ...Option) (*Catalog, error) {
	options := defaults().apply(opts...)
	if options.sourceName == "catalog" {
		options.sourceName = src.Name()
	}
	logger := options.logger

	raw, err := src.Read(ctx, options.httpClient)
	if err != nil {
		return nil, err
	}
	data, err := Decode(bytes.NewReader(raw), src.Name())
	if err != nil {
		return nil, err
	}

	if options.overlaySource != nil && options.overlay == nil {
		overlay, err := LoadOverlay(ctx, *options.overlaySource, options.httpClient)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("source", options.overlaySource.String()).
				Msg("Description overlay not applied")
		} else {
			options.overlay = overlay
		}
	}

	cat, err := build(data, options)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("source", src.String()).
		Int("areas", len(cat.areas)).
		Int("items", cat.Len()).
		Msg("Catalog loaded")
	return cat, nil
}

// LoadOverlay reads and decodes a description overlay.
func LoadOverlay(ctx context.Context, src Source, hc *http.Client) (*DescriptionOverlay, error) {
	raw, err := src.Read(ctx, hc)
	if err != nil {
		return nil, err
	}
	return DecodeOverlay(bytes.NewReader(raw), src.Name())
}
