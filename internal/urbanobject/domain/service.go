package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/urbanatlas/urban-api/pkg/geojson"
)

type ListServicesRequest struct {
	TerritoryID   snowflake.ID
	ServiceTypeID *snowflake.ID
}

type ListPhysicalObjectsRequest struct {
	TerritoryID          snowflake.ID
	PhysicalObjectTypeID *snowflake.ID
}

type ListFunctionalZonesRequest struct {
	TerritoryID          snowflake.ID
	FunctionalZoneTypeID *snowflake.ID
}

type ListIndicatorValuesRequest struct {
	TerritoryID snowflake.ID
	Filter      IndicatorValueFilter
}

type ServicesCapacityRequest struct {
	TerritoryID   snowflake.ID
	ServiceTypeID *snowflake.ID
}

type Service interface {
	ListServices(ctx context.Context, req ListServicesRequest) ([]ServiceObject, error)
	ListServicesWithGeometry(ctx context.Context, req ListServicesRequest) ([]ServiceWithGeometry, error)
	ListServicesGeoJSON(ctx context.Context, req ListServicesRequest) (*geojson.FeatureCollection, error)
	ServicesCapacity(ctx context.Context, req ServicesCapacityRequest) (float64, error)

	ListPhysicalObjects(ctx context.Context, req ListPhysicalObjectsRequest) ([]PhysicalObject, error)
	ListPhysicalObjectsWithGeometry(ctx context.Context, req ListPhysicalObjectsRequest) ([]PhysicalObjectWithGeometry, error)
	ListPhysicalObjectsGeoJSON(ctx context.Context, req ListPhysicalObjectsRequest) (*geojson.FeatureCollection, error)
	ListLivingBuildingsWithGeometry(ctx context.Context, territoryID snowflake.ID) ([]LivingBuildingWithGeometry, error)

	ListFunctionalZones(ctx context.Context, req ListFunctionalZonesRequest) ([]FunctionalZone, error)

	ListIndicators(ctx context.Context, territoryID snowflake.ID) ([]Indicator, error)
	ListIndicatorValues(ctx context.Context, req ListIndicatorValuesRequest) ([]IndicatorValue, error)
}

var ErrServiceTypeRequired = errors.New("service_type_required")
