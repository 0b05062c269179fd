package catalogs

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/agentstation/fieldmap/pkg/errors"
)

// MapData is the map catalog document.
type MapData struct {
	Areas                 []AreaRecord     `json:"areas"`
	CoordinateArraySchema CoordinateSchema `json:"coordinateArraySchema"`
}

// AreaRecord is one entry of the areas array.
type AreaRecord struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// CoordinateSchema wraps the item records.
type CoordinateSchema struct {
	Coordinates []ItemRecord `json:"coordinates"`
}

// ItemRecord is one item as it appears in the catalog document.
type ItemRecord struct {
	ID             RecordID `json:"id"`
	Area           string   `json:"area"`
	Title          string   `json:"title"`
	Classification string   `json:"classification,omitempty"`
	Coordinate     string   `json:"coordinate"`
	PinIcon        string   `json:"pinIcon,omitempty"`
	PopupImage     string   `json:"popupImage,omitempty"`
	Description    string   `json:"description,omitempty"`
}

// RecordID is an item id. Documents carry ids as strings, but numeric
// ids are accepted and kept in their decimal form.
type RecordID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.NewMalformedDataError("catalog", "id", "id must be a string or number")
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return errors.NewMalformedDataError("catalog", "id", "id must be a string or number")
	}
	*id = RecordID(n.String())
	return nil
}

// DescriptionOverlay replaces item descriptions after load.
type DescriptionOverlay struct {
	Descriptions []DescriptionEntry `json:"descriptions"`
}

// DescriptionEntry assigns one translated description to several items.
type DescriptionEntry struct {
	IDs        []RecordID `json:"ids"`
	Translated string     `json:"translated"`
}

// Decode reads a map catalog document. Wrong JSON types are reported as
// malformed data; unknown fields are ignored.
func Decode(r io.Reader, name string) (*MapData, error) {
	var data MapData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.WrapParse("json", name, err)
	}
	return &data, nil
}

// DecodeOverlay reads a description overlay document.
func DecodeOverlay(r io.Reader, name string) (*DescriptionOverlay, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.WrapParse("json", name, err)
	}
	descriptions, ok := raw["descriptions"]
	if !ok || bytes.Equal(bytes.TrimSpace(descriptions), []byte("null")) {
		return nil, errors.NewMalformedDataError(name, "descriptions", "missing descriptions array")
	}

	var overlay DescriptionOverlay
	if err := json.Unmarshal(descriptions, &overlay.Descriptions); err != nil {
		return nil, errors.WrapParse("json", name, err)
	}
	return &overlay, nil
}
