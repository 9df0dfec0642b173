// Package polyline encodes route geometry in Google's encoded polyline format.
// The format is documented at: https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"math"

	"github.com/roadplanner/roadplanner/pkg/geo"
)

// DefaultPrecision is the number of decimal places used by Encode and Decode.
const DefaultPrecision = 5

// ErrMalformed is returned when an encoded string ends in the middle of a value.
var ErrMalformed = errors.New("malformed polyline")

// Encode encodes a path with DefaultPrecision.
func Encode(path []geo.Coordinate) string {
	return EncodeWithPrecision(path, DefaultPrecision)
}

// EncodeWithPrecision encodes a path keeping the given number of decimal places.
func EncodeWithPrecision(path []geo.Coordinate, precision int) string {
	if len(path) == 0 {
		return ""
	}

	factor := math.Pow10(precision)
	buf := make([]byte, 0, len(path)*6)
	var prevLat, prevLon int

	for _, c := range path {
		lat := int(math.Round(c.Lat * factor))
		lon := int(math.Round(c.Lon * factor))

		buf = appendValue(buf, lat-prevLat)
		buf = appendValue(buf, lon-prevLon)

		prevLat, prevLon = lat, lon
	}

	return string(buf)
}

// Decode decodes a string produced by Encode.
func Decode(encoded string) ([]geo.Coordinate, error) {
	return DecodeWithPrecision(encoded, DefaultPrecision)
}

// DecodeWithPrecision decodes a string produced by EncodeWithPrecision.
func DecodeWithPrecision(encoded string, precision int) ([]geo.Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}

	factor := math.Pow10(precision)
	var (
		path     []geo.Coordinate
		lat, lon int
		pos      int
	)

	for pos < len(encoded) {
		dLat, next, err := readValue(encoded, pos)
		if err != nil {
			return nil, err
		}
		dLon, next, err := readValue(encoded, next)
		if err != nil {
			return nil, err
		}
		pos = next

		lat += dLat
		lon += dLon
		path = append(path, geo.Coordinate{
			Lat: float64(lat) / factor,
			Lon: float64(lon) / factor,
		})
	}

	return path, nil
}

func readValue(encoded string, pos int) (int, int, error) {
	var result, shift int

	for {
		if pos >= len(encoded) {
			return 0, pos, ErrMalformed
		}
		b := int(encoded[pos]) - 63
		pos++
		if b < 0 {
			return 0, pos, ErrMalformed
		}
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), pos, nil
	}
	return result >> 1, pos, nil
}

func appendValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}
