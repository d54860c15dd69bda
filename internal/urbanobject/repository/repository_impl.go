package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/urbanatlas/urban-api/internal/urbanobject/domain"
	"github.com/urbanatlas/urban-api/pkg/geojson"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Each join chain reaches the territory through the shared object-geometry
// row. Many entities can sit on one object-geometry.
const serviceJoin = `FROM services_data s
	JOIN urban_objects_data uo ON uo.service_id = s.service_id
	JOIN object_geometries_data og ON og.object_geometry_id = uo.object_geometry_id`

const physicalObjectJoin = `FROM physical_objects_data po
	JOIN urban_objects_data uo ON uo.physical_object_id = po.physical_object_id
	JOIN object_geometries_data og ON og.object_geometry_id = uo.object_geometry_id`

const livingBuildingJoin = `FROM living_buildings_data lb
	JOIN urban_objects_data uo ON uo.physical_object_id = lb.physical_object_id
	JOIN object_geometries_data og ON og.object_geometry_id = uo.object_geometry_id`

type serviceRow struct {
	ServiceID     snowflake.ID
	ServiceTypeID *snowflake.ID
	Name          string
	CapacityReal  *float64
	Properties    datatypes.JSONMap
	Geometry      *string
	CentrePoint   *string
}

type physicalObjectRow struct {
	PhysicalObjectID     snowflake.ID
	PhysicalObjectTypeID *snowflake.ID
	Name                 string
	Address              *string
	Properties           datatypes.JSONMap
	Geometry             *string
	CentrePoint          *string
}

type livingBuildingRow struct {
	LivingBuildingID snowflake.ID
	PhysicalObjectID snowflake.ID
	ResidentsNumber  *int
	LivingArea       *float64
	Properties       datatypes.JSONMap
	Geometry         *string
}

type functionalZoneRow struct {
	FunctionalZoneID     snowflake.ID
	TerritoryID          snowflake.ID
	FunctionalZoneTypeID *snowflake.ID
	Geometry             *string
}

func (r *repo) ListServices(ctx context.Context, db *gorm.DB, territoryID snowflake.ID, serviceTypeID *snowflake.ID) ([]domain.ServiceObject, error) {
	query := `SELECT s.service_id, s.service_type_id, s.name, s.capacity_real, s.properties ` +
		serviceJoin + ` WHERE og.territory_id = ?`
	args := []any{territoryID}
	if serviceTypeID != nil {
		query += ` AND s.service_type_id = ?`
		args = append(args, *serviceTypeID)
	}

	var rows []serviceRow
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	services := make([]domain.ServiceObject, 0, len(rows))
	for _, row := range rows {
		services = append(services, domain.ServiceObject{
			ServiceID:     row.ServiceID,
			ServiceTypeID: row.ServiceTypeID,
			Name:          row.Name,
			CapacityReal:  row.CapacityReal,
			Properties:    row.Properties,
		})
	}
	return services, nil
}

func (r *repo) ListServicesWithGeometry(ctx context.Context, db *gorm.DB, territoryID snowflake.ID, serviceTypeID *snowflake.ID) ([]domain.ServiceWithGeometry, error) {
	query := `SELECT s.service_id, s.service_type_id, s.name, s.capacity_real, s.properties,
		 ST_AsGeoJSON(og.geometry) AS geometry,
		 ST_AsGeoJSON(og.centre_point) AS centre_point ` +
		serviceJoin + ` WHERE og.territory_id = ?`
	args := []any{territoryID}
	if serviceTypeID != nil {
		query += ` AND s.service_type_id = ?`
		args = append(args, *serviceTypeID)
	}

	var rows []serviceRow
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	services := make([]domain.ServiceWithGeometry, 0, len(rows))
	for _, row := range rows {
		geometry, err := parseGeometry(row.Geometry)
		if err != nil {
			return nil, err
		}
		centre, err := parseGeometry(row.CentrePoint)
		if err != nil {
			return nil, err
		}
		services = append(services, domain.ServiceWithGeometry{
			ServiceID:     row.ServiceID,
			ServiceTypeID: row.ServiceTypeID,
			Name:          row.Name,
			CapacityReal:  row.CapacityReal,
			Properties:    row.Properties,
			Geometry:      geometry,
			CentrePoint:   centre,
		})
	}
	return services, nil
}

func (r *repo) SumServicesCapacity(ctx context.Context, db *gorm.DB, territoryID, serviceTypeID snowflake.ID) (float64, error) {
	var total *float64
	err := db.WithContext(ctx).Raw(
		`SELECT SUM(s.capacity_real) `+serviceJoin+
			` WHERE og.territory_id = ? AND s.service_type_id = ?`,
		territoryID, serviceTypeID,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *repo) ListPhysicalObjects(ctx context.Context, db *gorm.DB, territoryID snowflake.ID, physicalObjectTypeID *snowflake.ID) ([]domain.PhysicalObject, error) {
	query := `SELECT po.physical_object_id, po.physical_object_type_id, po.name, og.address, po.properties ` +
		physicalObjectJoin + ` WHERE og.territory_id = ?`
	args := []any{territoryID}
	if physicalObjectTypeID != nil {
		query += ` AND po.physical_object_type_id = ?`
		args = append(args, *physicalObjectTypeID)
	}

	var rows []physicalObjectRow
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	objects := make([]domain.PhysicalObject, 0, len(rows))
	for _, row := range rows {
		objects = append(objects, domain.PhysicalObject{
			PhysicalObjectID:     row.PhysicalObjectID,
			PhysicalObjectTypeID: row.PhysicalObjectTypeID,
			Name:                 row.Name,
			Address:              row.Address,
			Properties:           row.Properties,
		})
	}
	return objects, nil
}

func (r *repo) ListPhysicalObjectsWithGeometry(ctx context.Context, db *gorm.DB, territoryID snowflake.ID, physicalObjectTypeID *snowflake.ID) ([]domain.PhysicalObjectWithGeometry, error) {
	query := `SELECT po.physical_object_id, po.physical_object_type_id, po.name, og.address, po.properties,
		 ST_AsGeoJSON(og.geometry) AS geometry,
		 ST_AsGeoJSON(og.centre_point) AS centre_point ` +
		physicalObjectJoin + ` WHERE og.territory_id = ?`
	args := []any{territoryID}
	if physicalObjectTypeID != nil {
		query += ` AND po.physical_object_type_id = ?`
		args = append(args, *physicalObjectTypeID)
	}

	var rows []physicalObjectRow
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	objects := make([]domain.PhysicalObjectWithGeometry, 0, len(rows))
	for _, row := range rows {
		geometry, err := parseGeometry(row.Geometry)
		if err != nil {
			return nil, err
		}
		centre, err := parseGeometry(row.CentrePoint)
		if err != nil {
			return nil, err
		}
		objects = append(objects, domain.PhysicalObjectWithGeometry{
			PhysicalObjectID:     row.PhysicalObjectID,
			PhysicalObjectTypeID: row.PhysicalObjectTypeID,
			Name:                 row.Name,
			Address:              row.Address,
			Properties:           row.Properties,
			Geometry:             geometry,
			CentrePoint:          centre,
		})
	}
	return objects, nil
}

func (r *repo) ListLivingBuildingsWithGeometry(ctx context.Context, db *gorm.DB, territoryID snowflake.ID) ([]domain.LivingBuildingWithGeometry, error) {
	var rows []livingBuildingRow
	err := db.WithContext(ctx).Raw(
		`SELECT lb.living_building_id, lb.physical_object_id, lb.residents_number, lb.living_area, lb.properties,
		 ST_AsGeoJSON(og.geometry) AS geometry `+
			livingBuildingJoin+` WHERE og.territory_id = ?`,
		territoryID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	buildings := make([]domain.LivingBuildingWithGeometry, 0, len(rows))
	for _, row := range rows {
		geometry, err := parseGeometry(row.Geometry)
		if err != nil {
			return nil, err
		}
		buildings = append(buildings, domain.LivingBuildingWithGeometry{
			LivingBuildingID: row.LivingBuildingID,
			PhysicalObjectID: row.PhysicalObjectID,
			ResidentsNumber:  row.ResidentsNumber,
			LivingArea:       row.LivingArea,
			Properties:       row.Properties,
			Geometry:         geometry,
		})
	}
	return buildings, nil
}

func (r *repo) ListFunctionalZones(ctx context.Context, db *gorm.DB, territoryID snowflake.ID, functionalZoneTypeID *snowflake.ID) ([]domain.FunctionalZone, error) {
	query := `SELECT functional_zone_id, territory_id, functional_zone_type_id,
		 ST_AsGeoJSON(geometry) AS geometry
		 FROM functional_zones_data WHERE territory_id = ?`
	args := []any{territoryID}
	if functionalZoneTypeID != nil {
		query += ` AND functional_zone_type_id = ?`
		args = append(args, *functionalZoneTypeID)
	}

	var rows []functionalZoneRow
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	zones := make([]domain.FunctionalZone, 0, len(rows))
	for _, row := range rows {
		geometry, err := parseGeometry(row.Geometry)
		if err != nil {
			return nil, err
		}
		zones = append(zones, domain.FunctionalZone{
			FunctionalZoneID:     row.FunctionalZoneID,
			TerritoryID:          row.TerritoryID,
			FunctionalZoneTypeID: row.FunctionalZoneTypeID,
			Geometry:             geometry,
		})
	}
	return zones, nil
}

func (r *repo) ListIndicators(ctx context.Context, db *gorm.DB, territoryID snowflake.ID) ([]domain.Indicator, error) {
	var indicators []domain.Indicator
	err := db.WithContext(ctx).Raw(
		`SELECT i.indicator_id, i.name, i.level, i.list_label, i.parent_id
		 FROM territory_indicators_data ti
		 JOIN indicators_dict i ON i.indicator_id = ti.indicator_id
		 WHERE ti.territory_id = ?`,
		territoryID,
	).Scan(&indicators).Error
	if err != nil {
		return nil, err
	}
	return indicators, nil
}

func (r *repo) ListIndicatorValues(ctx context.Context, db *gorm.DB, territoryID snowflake.ID, filter domain.IndicatorValueFilter) ([]domain.IndicatorValue, error) {
	query := `SELECT indicator_id, territory_id, date_type, date_value, value
		 FROM territory_indicators_data WHERE territory_id = ?`
	args := []any{territoryID}
	if filter.DateType != nil {
		query += ` AND date_type = ?`
		args = append(args, *filter.DateType)
	}
	if filter.DateValue != nil {
		query += ` AND date_value = ?`
		args = append(args, *filter.DateValue)
	}

	var values []domain.IndicatorValue
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

func parseGeometry(raw *string) (*geojson.Geometry, error) {
	if raw == nil {
		return nil, nil
	}
	return geojson.ParseString(*raw)
}
