package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbanatlas/urban-api/internal/urbanobject/domain"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE services_data (
			service_id INTEGER PRIMARY KEY,
			service_type_id INTEGER,
			name TEXT NOT NULL,
			capacity_real REAL,
			properties TEXT
		)`,
		`CREATE TABLE physical_objects_data (
			physical_object_id INTEGER PRIMARY KEY,
			physical_object_type_id INTEGER,
			name TEXT NOT NULL,
			properties TEXT
		)`,
		`CREATE TABLE object_geometries_data (
			object_geometry_id INTEGER PRIMARY KEY,
			territory_id INTEGER NOT NULL,
			address TEXT,
			geometry TEXT,
			centre_point TEXT
		)`,
		`CREATE TABLE urban_objects_data (
			urban_object_id INTEGER PRIMARY KEY,
			service_id INTEGER,
			physical_object_id INTEGER,
			object_geometry_id INTEGER NOT NULL
		)`,
		`CREATE TABLE indicators_dict (
			indicator_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			level INTEGER NOT NULL DEFAULT 0,
			list_label TEXT,
			parent_id INTEGER
		)`,
		`CREATE TABLE territory_indicators_data (
			indicator_id INTEGER NOT NULL,
			territory_id INTEGER NOT NULL,
			date_type TEXT NOT NULL,
			date_value TIMESTAMP NOT NULL,
			value REAL NOT NULL
		)`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

// two territories: 100 holds a school and a clinic on one shared footprint,
// 200 holds a single school.
func seedUrbanObjects(t *testing.T, db *gorm.DB) {
	t.Helper()
	exec := func(sql string, args ...any) {
		require.NoError(t, db.Exec(sql, args...).Error)
	}

	exec(`INSERT INTO object_geometries_data (object_geometry_id, territory_id, address) VALUES (1, 100, 'Nevsky 1')`)
	exec(`INSERT INTO object_geometries_data (object_geometry_id, territory_id, address) VALUES (2, 200, NULL)`)

	exec(`INSERT INTO services_data (service_id, service_type_id, name, capacity_real) VALUES (10, 1, 'school', 550)`)
	exec(`INSERT INTO services_data (service_id, service_type_id, name, capacity_real) VALUES (11, 2, 'clinic', 200)`)
	exec(`INSERT INTO services_data (service_id, service_type_id, name, capacity_real) VALUES (12, 1, 'school-2', 700)`)

	exec(`INSERT INTO physical_objects_data (physical_object_id, physical_object_type_id, name) VALUES (20, 5, 'building')`)

	exec(`INSERT INTO urban_objects_data (urban_object_id, service_id, physical_object_id, object_geometry_id) VALUES (1, 10, 20, 1)`)
	exec(`INSERT INTO urban_objects_data (urban_object_id, service_id, physical_object_id, object_geometry_id) VALUES (2, 11, 20, 1)`)
	exec(`INSERT INTO urban_objects_data (urban_object_id, service_id, object_geometry_id) VALUES (3, 12, 2)`)
}

func TestListServicesByTerritory(t *testing.T) {
	db := setupDB(t)
	seedUrbanObjects(t, db)
	r := Provide()

	got, err := r.ListServices(context.Background(), db, 100, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	names := []string{got[0].Name, got[1].Name}
	assert.ElementsMatch(t, []string{"school", "clinic"}, names)
}

func TestListServicesTypeFilter(t *testing.T) {
	db := setupDB(t)
	seedUrbanObjects(t, db)
	r := Provide()

	typeID := snowflake.ID(1)
	got, err := r.ListServices(context.Background(), db, 100, &typeID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "school", got[0].Name)
}

func TestListServicesUnknownTerritory(t *testing.T) {
	db := setupDB(t)
	seedUrbanObjects(t, db)
	r := Provide()

	got, err := r.ListServices(context.Background(), db, 999, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSumServicesCapacity(t *testing.T) {
	db := setupDB(t)
	seedUrbanObjects(t, db)
	r := Provide()
	ctx := context.Background()

	total, err := r.SumServicesCapacity(ctx, db, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, 550.0, total)

	// no matching rows sums to zero, not an error
	total, err = r.SumServicesCapacity(ctx, db, 100, 99)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestListPhysicalObjectsCarriesAddress(t *testing.T) {
	db := setupDB(t)
	seedUrbanObjects(t, db)
	r := Provide()

	got, err := r.ListPhysicalObjects(context.Background(), db, 100, nil)
	require.NoError(t, err)

	// the building is linked twice through urban objects but the address
	// comes from the single shared footprint
	require.NotEmpty(t, got)
	require.NotNil(t, got[0].Address)
	assert.Equal(t, "Nevsky 1", *got[0].Address)
}

func TestListIndicatorValues(t *testing.T) {
	db := setupDB(t)
	r := Provide()
	ctx := context.Background()

	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Exec(
		`INSERT INTO indicators_dict (indicator_id, name, level) VALUES (1, 'population', 1)`,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO territory_indicators_data (indicator_id, territory_id, date_type, date_value, value)
		 VALUES (1, 100, 'year', ?, 5350.0)`, stamp,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO territory_indicators_data (indicator_id, territory_id, date_type, date_value, value)
		 VALUES (1, 100, 'month', ?, 440.0)`, stamp,
	).Error)

	indicators, err := r.ListIndicators(ctx, db, 100)
	require.NoError(t, err)
	require.Len(t, indicators, 2)
	assert.Equal(t, "population", indicators[0].Name)

	all, err := r.ListIndicatorValues(ctx, db, 100, domain.IndicatorValueFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	yearly := "year"
	filtered, err := r.ListIndicatorValues(ctx, db, 100, domain.IndicatorValueFilter{DateType: &yearly})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, 5350.0, filtered[0].Value)
}
