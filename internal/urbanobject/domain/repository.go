package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// IndicatorValueFilter narrows indicator values to one time-series slice.
// Nil members mean "no filter".
type IndicatorValueFilter struct {
	DateType  *string
	DateValue *time.Time
}

type Repository interface {
	ListServices(ctx context.Context, db *gorm.DB, territoryID snowflake.ID, serviceTypeID *snowflake.ID) ([]ServiceObject, error)
	ListServicesWithGeometry(ctx context.Context, db *gorm.DB, territoryID snowflake.ID, serviceTypeID *snowflake.ID) ([]ServiceWithGeometry, error)
	SumServicesCapacity(ctx context.Context, db *gorm.DB, territoryID, serviceTypeID snowflake.ID) (float64, error)

	ListPhysicalObjects(ctx context.Context, db *gorm.DB, territoryID snowflake.ID, physicalObjectTypeID *snowflake.ID) ([]PhysicalObject, error)
	ListPhysicalObjectsWithGeometry(ctx context.Context, db *gorm.DB, territoryID snowflake.ID, physicalObjectTypeID *snowflake.ID) ([]PhysicalObjectWithGeometry, error)
	ListLivingBuildingsWithGeometry(ctx context.Context, db *gorm.DB, territoryID snowflake.ID) ([]LivingBuildingWithGeometry, error)

	ListFunctionalZones(ctx context.Context, db *gorm.DB, territoryID snowflake.ID, functionalZoneTypeID *snowflake.ID) ([]FunctionalZone, error)

	ListIndicators(ctx context.Context, db *gorm.DB, territoryID snowflake.ID) ([]Indicator, error)
	ListIndicatorValues(ctx context.Context, db *gorm.DB, territoryID snowflake.ID, filter IndicatorValueFilter) ([]IndicatorValue, error)
}
