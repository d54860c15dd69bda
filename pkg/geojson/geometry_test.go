package geojson

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAllTypes(t *testing.T) {
	cases := []struct {
		name string
		text string
		typ  Type
	}{
		{"point", `{"type":"Point","coordinates":[30.22,59.86]}`, TypePoint},
		{"linestring", `{"type":"LineString","coordinates":[[30.22,59.86],[30.25,59.85]]}`, TypeLineString},
		{"polygon", `{"type":"Polygon","coordinates":[[[30.22,59.86],[30.22,59.85],[30.25,59.85],[30.25,59.86],[30.22,59.86]]]}`, TypePolygon},
		{"multipolygon", `{"type":"MultiPolygon","coordinates":[[[[30.22,59.86],[30.22,59.85],[30.25,59.85],[30.22,59.86]]]]}`, TypeMultiPolygon},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := Parse([]byte(tc.text))
			require.NoError(t, err)
			assert.Equal(t, tc.typ, g.GeometryType())
		})
	}
}

func TestParseShapeMismatch(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"point with polygon payload", `{"type":"Point","coordinates":[[[30.22,59.86]]]}`},
		{"polygon with point payload", `{"type":"Polygon","coordinates":[30.22,59.86]}`},
		{"linestring with scalar payload", `{"type":"LineString","coordinates":30.22}`},
		{"multipolygon with ring payload", `{"type":"MultiPolygon","coordinates":[[30.22,59.86]]}`},
		{"position with three values", `{"type":"Point","coordinates":[30.22,59.86,12.0]}`},
		{"polygon without rings", `{"type":"Polygon","coordinates":[]}`},
		{"unknown tag", `{"type":"GeometryCollection","coordinates":[]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.text))
			assert.ErrorIs(t, err, ErrGeometryFormat)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	texts := []string{
		`{"type":"Point","coordinates":[30.22,59.86]}`,
		`{"type":"LineString","coordinates":[[30.22,59.86],[30.25,59.85],[30.3,59.9]]}`,
		`{"type":"Polygon","coordinates":[[[30.22,59.86],[30.22,59.85],[30.25,59.85],[30.25,59.86],[30.22,59.86]]]}`,
		`{"type":"MultiPolygon","coordinates":[[[[30.22,59.86],[30.22,59.85],[30.25,59.85],[30.22,59.86]]],[[[1,2],[3,4],[5,6],[1,2]]]]}`,
	}

	for _, text := range texts {
		first, err := Parse([]byte(text))
		require.NoError(t, err)

		serialized, err := json.Marshal(first)
		require.NoError(t, err)

		second, err := Parse(serialized)
		require.NoError(t, err)

		assert.Equal(t, first.GeometryType(), second.GeometryType())
		assert.Equal(t, first.Coordinates(), second.Coordinates())
	}
}

func TestPolygonWKT(t *testing.T) {
	g, err := Parse([]byte(`{"type":"Polygon","coordinates":[[[30.22,59.86],[30.22,59.85],[30.25,59.85],[30.25,59.86],[30.22,59.86]]]}`))
	require.NoError(t, err)

	wkt := g.WKT()
	assert.Equal(t, "POLYGON ((30.22 59.86, 30.22 59.85, 30.25 59.85, 30.25 59.86, 30.22 59.86))", wkt)

	// built once, reused
	assert.Equal(t, wkt, g.WKT())

	rings, ok := g.Coordinates().([][]Coordinate)
	require.True(t, ok)
	require.Len(t, rings[0], 5)
	assert.Equal(t, rings[0][0], rings[0][4])
}

func TestPointWKT(t *testing.T) {
	g, err := Parse([]byte(`{"type":"Point","coordinates":[30.22,59.86]}`))
	require.NoError(t, err)
	assert.Equal(t, "POINT (30.22 59.86)", g.WKT())
}

func TestGeomFromText(t *testing.T) {
	g, err := Parse([]byte(`{"type":"Point","coordinates":[30.22,59.86]}`))
	require.NoError(t, err)

	expr := g.GeomFromText(DefaultSRID)
	assert.Equal(t, "ST_GeomFromText(?, ?)", expr.SQL)
	require.Len(t, expr.Vars, 2)
	assert.Equal(t, "POINT (30.22 59.86)", expr.Vars[0])
	assert.Equal(t, 4326, expr.Vars[1])
}

func TestUnmarshalIntoStruct(t *testing.T) {
	var payload struct {
		Name     string    `json:"name"`
		Geometry *Geometry `json:"geometry"`
	}
	err := json.Unmarshal([]byte(`{"name":"quarter","geometry":{"type":"Point","coordinates":[1.5,2.5]}}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, TypePoint, payload.Geometry.GeometryType())
	assert.Equal(t, Coordinate{1.5, 2.5}, payload.Geometry.Coordinates())
}
