package overpass

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/roadplanner/roadplanner/internal/poi"
	"github.com/roadplanner/roadplanner/pkg/geo"
)

// excludedHighways are highway values that are not drivable roads.
const excludedHighways = "footway|path|cycleway|service|track"

// bboxFilter formats bbox in Overpass order: south,west,north,east.
func bboxFilter(b geo.BoundingBox) string {
	return fmt.Sprintf("(%s,%s,%s,%s)",
		formatDeg(b.MinLat), formatDeg(b.MinLon), formatDeg(b.MaxLat), formatDeg(b.MaxLon))
}

func formatDeg(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// networkQuery selects drivable ways inside bbox together with their nodes.
func networkQuery(b geo.BoundingBox, timeoutSec int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[out:json][timeout:%d];\n(\n", timeoutSec)
	fmt.Fprintf(&sb, "  way[\"highway\"][\"highway\"!~\"%s\"]%s;\n", excludedHighways, bboxFilter(b))
	sb.WriteString("  node(w);\n);\nout body;\n")
	return sb.String()
}

// poiQuery selects the tagged nodes of category c inside bbox.
func poiQuery(b geo.BoundingBox, c poi.Category, timeoutSec int) (string, error) {
	key, values, err := poi.Filter(c)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[out:json][timeout:%d];\n(\n", timeoutSec)
	for _, v := range values {
		fmt.Fprintf(&sb, "  node[%q=%q]%s;\n", key, v, bboxFilter(b))
	}
	sb.WriteString(");\nout body;\n")
	return sb.String(), nil
}

// parseMaxSpeed reads an OSM maxspeed value in km/h.
// Returns 0 for values without a number such as "none" or "signals".
func parseMaxSpeed(v string) float64 {
	v = strings.TrimSpace(v)
	end := strings.IndexFunc(v, func(r rune) bool { return !unicode.IsDigit(r) && r != '.' })
	digits := v
	if end >= 0 {
		digits = v[:end]
	}
	if digits == "" {
		return 0
	}

	speed, err := strconv.ParseFloat(digits, 64)
	if err != nil || speed <= 0 {
		return 0
	}
	if strings.HasSuffix(strings.ToLower(v), "mph") {
		speed *= 1.609344
	}
	return speed
}
