package geojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm/clause"
)

// DefaultSRID is the spatial reference id used for writes unless overridden.
const DefaultSRID = 4326

var (
	// ErrGeometryFormat marks a coordinate payload that does not match its
	// declared geometry type, or an unrecognized type tag.
	ErrGeometryFormat = errors.New("geometry_format")
)

// Type is the GeoJSON geometry type tag.
type Type string

const (
	TypePoint        Type = "Point"
	TypePolygon      Type = "Polygon"
	TypeMultiPolygon Type = "MultiPolygon"
	TypeLineString   Type = "LineString"
)

// Coordinate is a single [x, y] position.
type Coordinate [2]float64

// Geometry is a tagged union over the four geometry kinds the store works
// with. The coordinate payload is decoded and validated against the tag, so a
// constructed Geometry always has a well-formed payload.
type Geometry struct {
	typ     Type
	point   Coordinate
	line    []Coordinate
	polygon [][]Coordinate
	multi   [][][]Coordinate

	wkt string // built once per instance
}

type geometryEnvelope struct {
	Type        Type            `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Decode validates a raw coordinate payload against the given type tag and
// returns the typed geometry. Returns ErrGeometryFormat on any shape or tag
// mismatch.
func Decode(typ Type, coordinates json.RawMessage) (*Geometry, error) {
	g := &Geometry{typ: typ}
	switch typ {
	case TypePoint:
		point, err := decodePosition(coordinates)
		if err != nil {
			return nil, err
		}
		g.point = point
	case TypeLineString:
		line, err := decodeLine(coordinates)
		if err != nil {
			return nil, err
		}
		g.line = line
	case TypePolygon:
		polygon, err := decodeRings(coordinates)
		if err != nil {
			return nil, err
		}
		g.polygon = polygon
	case TypeMultiPolygon:
		var raw []json.RawMessage
		if err := json.Unmarshal(coordinates, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGeometryFormat, err)
		}
		multi := make([][][]Coordinate, 0, len(raw))
		for _, polygon := range raw {
			rings, err := decodeRings(polygon)
			if err != nil {
				return nil, err
			}
			multi = append(multi, rings)
		}
		g.multi = multi
	default:
		return nil, fmt.Errorf("%w: unknown geometry type %q", ErrGeometryFormat, string(typ))
	}
	return g, nil
}

// Parse decodes a GeoJSON geometry string, as produced by the store's
// ST_AsGeoJSON cast.
func Parse(text []byte) (*Geometry, error) {
	var envelope geometryEnvelope
	if err := json.Unmarshal(text, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeometryFormat, err)
	}
	return Decode(envelope.Type, envelope.Coordinates)
}

// ParseString is Parse for the text form repositories scan out of the store.
func ParseString(text string) (*Geometry, error) {
	return Parse([]byte(text))
}

func decodePosition(raw json.RawMessage) (Coordinate, error) {
	var position []float64
	if err := json.Unmarshal(raw, &position); err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrGeometryFormat, err)
	}
	if len(position) != 2 {
		return Coordinate{}, fmt.Errorf("%w: position must be [x, y], got %d values", ErrGeometryFormat, len(position))
	}
	return Coordinate{position[0], position[1]}, nil
}

func decodeLine(raw json.RawMessage) ([]Coordinate, error) {
	var positions []json.RawMessage
	if err := json.Unmarshal(raw, &positions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeometryFormat, err)
	}
	line := make([]Coordinate, 0, len(positions))
	for _, position := range positions {
		point, err := decodePosition(position)
		if err != nil {
			return nil, err
		}
		line = append(line, point)
	}
	return line, nil
}

func decodeRings(raw json.RawMessage) ([][]Coordinate, error) {
	var rings []json.RawMessage
	if err := json.Unmarshal(raw, &rings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeometryFormat, err)
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("%w: polygon must have an outer ring", ErrGeometryFormat)
	}
	decoded := make([][]Coordinate, 0, len(rings))
	for _, ring := range rings {
		line, err := decodeLine(ring)
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, line)
	}
	return decoded, nil
}

// GeometryType returns the type tag.
func (g *Geometry) GeometryType() Type {
	return g.typ
}

// Coordinates returns the coordinate payload in its generic form, shaped
// according to the type tag.
func (g *Geometry) Coordinates() any {
	switch g.typ {
	case TypePoint:
		return g.point
	case TypeLineString:
		return g.line
	case TypePolygon:
		return g.polygon
	default:
		return g.multi
	}
}

// WKT returns the well-known-text form used for store writes. Only the outer
// ring of each polygon is carried, holes are not modeled. The text is built
// once and reused.
func (g *Geometry) WKT() string {
	if g.wkt != "" {
		return g.wkt
	}
	var b strings.Builder
	switch g.typ {
	case TypePoint:
		b.WriteString("POINT (")
		writePosition(&b, g.point)
		b.WriteByte(')')
	case TypeLineString:
		b.WriteString("LINESTRING (")
		writeLine(&b, g.line)
		b.WriteByte(')')
	case TypePolygon:
		b.WriteString("POLYGON ((")
		writeLine(&b, g.polygon[0])
		b.WriteString("))")
	case TypeMultiPolygon:
		b.WriteString("MULTIPOLYGON (")
		for i, polygon := range g.multi {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("((")
			writeLine(&b, polygon[0])
			b.WriteString("))")
		}
		b.WriteByte(')')
	}
	g.wkt = b.String()
	return g.wkt
}

// GeomFromText returns the database geometry literal for the given spatial
// reference id.
func (g *Geometry) GeomFromText(srid int) clause.Expr {
	return clause.Expr{SQL: "ST_GeomFromText(?, ?)", Vars: []any{g.WKT(), srid}}
}

func writePosition(b *strings.Builder, position Coordinate) {
	b.WriteString(strconv.FormatFloat(position[0], 'f', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(position[1], 'f', -1, 64))
}

func writeLine(b *strings.Builder, line []Coordinate) {
	for i, position := range line {
		if i > 0 {
			b.WriteString(", ")
		}
		writePosition(b, position)
	}
}

// MarshalJSON emits the canonical GeoJSON geometry object.
func (g *Geometry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        Type `json:"type"`
		Coordinates any  `json:"coordinates"`
	}{Type: g.typ, Coordinates: g.Coordinates()})
}

// UnmarshalJSON decodes and validates a GeoJSON geometry object.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}
