package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/urbanatlas/urban-api/pkg/geojson"
	"gorm.io/datatypes"
)

// ServiceObject is an amenity reachable from a territory through its
// urban-object link. Capacity is the real (surveyed) value, not the
// normative one.
type ServiceObject struct {
	ServiceID     snowflake.ID      `json:"service_id"`
	ServiceTypeID *snowflake.ID     `json:"service_type_id,omitempty"`
	Name          string            `json:"name"`
	CapacityReal  *float64          `json:"capacity_real"`
	Properties    datatypes.JSONMap `json:"properties"`
}

// ServiceWithGeometry carries the footprint of the object-geometry row the
// service sits on.
type ServiceWithGeometry struct {
	ServiceID     snowflake.ID      `json:"service_id"`
	ServiceTypeID *snowflake.ID     `json:"service_type_id,omitempty"`
	Name          string            `json:"name"`
	CapacityReal  *float64          `json:"capacity_real"`
	Properties    datatypes.JSONMap `json:"properties"`
	Geometry      *geojson.Geometry `json:"geometry"`
	CentrePoint   *geojson.Geometry `json:"centre_point"`
}

type PhysicalObject struct {
	PhysicalObjectID     snowflake.ID      `json:"physical_object_id"`
	PhysicalObjectTypeID *snowflake.ID     `json:"physical_object_type_id,omitempty"`
	Name                 string            `json:"name"`
	Address              *string           `json:"address"`
	Properties           datatypes.JSONMap `json:"properties"`
}

type PhysicalObjectWithGeometry struct {
	PhysicalObjectID     snowflake.ID      `json:"physical_object_id"`
	PhysicalObjectTypeID *snowflake.ID     `json:"physical_object_type_id,omitempty"`
	Name                 string            `json:"name"`
	Address              *string           `json:"address"`
	Properties           datatypes.JSONMap `json:"properties"`
	Geometry             *geojson.Geometry `json:"geometry"`
	CentrePoint          *geojson.Geometry `json:"centre_point"`
}

type LivingBuildingWithGeometry struct {
	LivingBuildingID snowflake.ID      `json:"living_building_id"`
	PhysicalObjectID snowflake.ID      `json:"physical_object_id"`
	ResidentsNumber  *int              `json:"residents_number"`
	LivingArea       *float64          `json:"living_area"`
	Properties       datatypes.JSONMap `json:"properties"`
	Geometry         *geojson.Geometry `json:"geometry"`
}

type FunctionalZone struct {
	FunctionalZoneID     snowflake.ID      `json:"functional_zone_id"`
	TerritoryID          snowflake.ID      `json:"territory_id"`
	FunctionalZoneTypeID *snowflake.ID     `json:"functional_zone_type_id,omitempty"`
	Geometry             *geojson.Geometry `json:"geometry"`
}

type Indicator struct {
	IndicatorID snowflake.ID  `json:"indicator_id"`
	Name        string        `json:"name"`
	Level       int           `json:"level"`
	ListLabel   *string       `json:"list_label"`
	ParentID    *snowflake.ID `json:"parent_id,omitempty"`
}

type IndicatorValue struct {
	IndicatorID snowflake.ID `json:"indicator_id"`
	TerritoryID snowflake.ID `json:"territory_id"`
	DateType    string       `json:"date_type"`
	DateValue   time.Time    `json:"date_value"`
	Value       float64      `json:"value"`
}
