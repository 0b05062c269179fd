package catalogs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmap/internal/fsutil"
	"github.com/agentstation/fieldmap/internal/transport"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
)

var (
	// The map tool page embeds its props as a single-quoted JSON attribute.
	propsPattern         = regexp.MustCompile(`<div[^>]*id=['"]react-new_map_tool-wrapper['"][^>]*data-react-props='([^']+)'`)
	fallbackPropsPattern = regexp.MustCompile(`data-react-props=['"](\{[^"]*toolStructuralMappingId[^"]*\})['"]`)
)

// UpdateResult describes the outcome of an Update.
type UpdateResult struct {
	Path    string `json:"path"`
	URL     string `json:"url"`
	Changed bool   `json:"changed"`
	OldHash string `json:"oldHash,omitempty"`
	NewHash string `json:"newHash"`
	Areas   int    `json:"areas"`
	Items   int    `json:"items"`
}

// Updater refreshes a local catalog file from a remote document.
type Updater struct {
	client *transport.Client
	logger *zerolog.Logger
}

// NewUpdater creates an Updater. A nil http.Client uses the default
// update timeout.
func NewUpdater(hc *http.Client, logger *zerolog.Logger) *Updater {
	if hc == nil {
		hc = &http.Client{Timeout: constants.UpdateHTTPTimeout}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Updater{
		client: transport.New(transport.WithHTTPClient(hc)),
		logger: logger,
	}
}

// ResolveDataURL reads the map tool page and derives the URL of its
// catalog document from the embedded tool props.
func (u *Updater) ResolveDataURL(ctx context.Context, pageURL string) (string, error) {
	page, err := u.client.GetHTML(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return dataURLFromPage(pageURL, page)
}

func dataURLFromPage(pageURL string, page []byte) (string, error) {
	match := propsPattern.FindSubmatch(page)
	if match == nil {
		match = fallbackPropsPattern.FindSubmatch(page)
	}
	if match == nil {
		return "", errors.NewMalformedDataError("page", "data-react-props", "map tool props not found")
	}

	var props struct {
		MappingID json.Number `json:"toolStructuralMappingId"`
		Mapping   struct {
			UpdatedAt string `json:"updatedAt"`
		} `json:"toolStructuralMapping"`
	}
	if err := json.Unmarshal([]byte(html.UnescapeString(string(match[1]))), &props); err != nil {
		return "", errors.WrapParse("json", "data-react-props", err)
	}
	if props.MappingID == "" {
		return "", errors.NewMalformedDataError("page", "toolStructuralMappingId", "missing mapping id")
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", errors.NewValidationError("page", pageURL, err.Error())
	}
	dataURL := &url.URL{
		Scheme: base.Scheme,
		Host:   base.Host,
		Path:   fmt.Sprintf("/api/tool_structural_mappings/%s.json", props.MappingID),
	}
	if props.Mapping.UpdatedAt != "" {
		dataURL.RawQuery = url.Values{"updatedAt": {props.Mapping.UpdatedAt}}.Encode()
	}
	return dataURL.String(), nil
}

// Update downloads the catalog at dataURL, validates it, and replaces the
// file at path only when its content hash differs from the existing file.
// Files are written tab-indented, atomically.
func (u *Updater) Update(ctx context.Context, dataURL, path string) (*UpdateResult, error) {
	raw, err := u.client.GetJSON(ctx, dataURL)
	if err != nil {
		return nil, err
	}

	data, err := Decode(bytes.NewReader(raw), dataURL)
	if err != nil {
		return nil, err
	}
	cat, err := New(data, WithSourceName(dataURL))
	if err != nil {
		return nil, err
	}

	newHash, err := ContentHash(raw)
	if err != nil {
		return nil, err
	}
	result := &UpdateResult{
		Path:    path,
		URL:     dataURL,
		NewHash: newHash,
		Areas:   len(cat.areas),
		Items:   cat.Len(),
	}

	if existing, err := os.ReadFile(path); err == nil {
		if oldHash, err := ContentHash(existing); err == nil {
			result.OldHash = oldHash
			if oldHash == newHash {
				u.logger.Info().Str("path", path).Msg("Catalog unchanged")
				return result, nil
			}
		} else {
			u.logger.Warn().Err(err).Str("path", path).Msg("Existing catalog unreadable, replacing")
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.WrapIO("read", path, err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "\t"); err != nil {
		return nil, errors.WrapParse("json", dataURL, err)
	}
	out.WriteByte('\n')
	if err := fsutil.WriteFileAtomic(path, out.Bytes(), constants.FilePermissions); err != nil {
		return nil, err
	}

	result.Changed = true
	u.logger.Info().
		Str("path", path).
		Str("hash", newHash).
		Int("areas", result.Areas).
		Int("items", result.Items).
		Msg("Catalog updated")
	return result, nil
}
