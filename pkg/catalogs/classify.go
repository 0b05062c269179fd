package catalogs

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/fieldmap/pkg/constants"
)

// Classify returns the grouping key for an item title. Titles are
// NFC-normalized and trimmed so visually identical names group together;
// an empty title groups under "Unknown".
func Classify(title string) string {
	key := strings.TrimSpace(norm.NFC.String(title))
	if key == "" {
		return constants.UnknownClassification
	}
	return key
}

// RegionOf returns the part of an area title before the first separator.
// A title without a separator is its own region.
func RegionOf(title string) string {
	region, _, _ := strings.Cut(title, constants.RegionSeparator)
	return region
}

// AreaNameOf returns the part of an area title after the first separator.
func AreaNameOf(title string) string {
	_, name, found := strings.Cut(title, constants.RegionSeparator)
	if !found {
		return title
	}
	return name
}

// ParseCoordinate parses an "x,y" pair. Missing or unparsable components are 0.
func ParseCoordinate(s string) Coordinate {
	xs, ys, _ := strings.Cut(s, ",")
	return Coordinate{X: parseComponent(xs), Y: parseComponent(ys)}
}

func parseComponent(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
