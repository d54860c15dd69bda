package geojson

import (
	"encoding/json"
	"fmt"
)

// Feature pairs one geometry with the remaining row attributes.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   *Geometry      `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// FeatureCollection is the CRS-tagged GeoJSON response shape.
type FeatureCollection struct {
	CRS      CRS       `json:"crs"`
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeature builds a Feature from a row-like mapping. The named geometry
// column may hold GeoJSON text (as scanned from the store), a raw JSON value,
// an already-decoded mapping, or a parsed *Geometry; every other key becomes a
// property. With includeNulls false, nil-valued properties are dropped.
func NewFeature(row map[string]any, geometryColumn string, includeNulls bool) (Feature, error) {
	value, ok := row[geometryColumn]
	if !ok {
		return Feature{}, fmt.Errorf("%w: row has no %q column", ErrGeometryFormat, geometryColumn)
	}

	geometry, err := coerceGeometry(value)
	if err != nil {
		return Feature{}, err
	}

	properties := make(map[string]any, len(row)-1)
	for name, v := range row {
		if name == geometryColumn {
			continue
		}
		if !includeNulls && v == nil {
			continue
		}
		properties[name] = v
	}

	return Feature{Type: "Feature", Geometry: geometry, Properties: properties}, nil
}

// NewFeatureCollection maps each row to a Feature and wraps them with the
// given CRS. Rows come out in input order.
func NewFeatureCollection(rows []map[string]any, geometryColumn string, crs CRS, includeNulls bool) (*FeatureCollection, error) {
	features := make([]Feature, 0, len(rows))
	for _, row := range rows {
		feature, err := NewFeature(row, geometryColumn, includeNulls)
		if err != nil {
			return nil, err
		}
		features = append(features, feature)
	}
	return &FeatureCollection{CRS: crs, Type: "FeatureCollection", Features: features}, nil
}

func coerceGeometry(value any) (*Geometry, error) {
	switch v := value.(type) {
	case *Geometry:
		if v == nil {
			return nil, fmt.Errorf("%w: nil geometry", ErrGeometryFormat)
		}
		return v, nil
	case Geometry:
		return &v, nil
	case string:
		return Parse([]byte(v))
	case []byte:
		return Parse(v)
	case json.RawMessage:
		return Parse(v)
	case map[string]any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGeometryFormat, err)
		}
		return Parse(encoded)
	default:
		return nil, fmt.Errorf("%w: unsupported geometry value %T", ErrGeometryFormat, value)
	}
}
