package geojson

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCRS marks a CRS whose name does not carry a parseable numeric code.
var ErrInvalidCRS = errors.New("invalid_crs")

// CRS is the coordinate reference system descriptor attached to a feature
// collection.
type CRS struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// NamedCRS builds the standard urn-named CRS for an EPSG code.
func NamedCRS(code int) CRS {
	return CRS{
		Type:       "name",
		Properties: map[string]any{"name": fmt.Sprintf("urn:ogc:def:crs:EPSG:%d", code)},
	}
}

var (
	CRS4326 = NamedCRS(4326)
	CRS3857 = NamedCRS(3857)
)

// Code extracts the EPSG code from the CRS name: the integer after the last
// colon, or the whole name when it has no colon.
func (c CRS) Code() (int, error) {
	name, ok := c.Properties["name"].(string)
	if !ok {
		return 0, fmt.Errorf("%w: crs has no name property", ErrInvalidCRS)
	}
	tail := name
	if idx := strings.LastIndex(name, ":"); idx >= 0 {
		tail = name[idx+1:]
	}
	code, err := strconv.Atoi(tail)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCRS, name)
	}
	return code, nil
}
