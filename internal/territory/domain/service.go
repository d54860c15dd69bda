package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/urbanatlas/urban-api/pkg/geojson"
)

type CreateTerritoryRequest struct {
	TerritoryTypeID *snowflake.ID
	ParentID        snowflake.ID
	Name            string
	Geometry        *geojson.Geometry
	CentrePoint     *geojson.Geometry
	Level           int
	Properties      map[string]any
	AdminCenter     *string
	OkatoCode       *string
}

type ListTerritoriesRequest struct {
	ParentID        snowflake.ID
	AllLevels       bool
	TerritoryTypeID *snowflake.ID
}

type CreateTerritoryTypeRequest struct {
	Name string
}

type Service interface {
	GetByID(ctx context.Context, id snowflake.ID) (Territory, error)
	Create(ctx context.Context, req CreateTerritoryRequest) (Territory, error)
	ListByParent(ctx context.Context, req ListTerritoriesRequest) ([]Territory, error)
	ListByParentWithoutGeometry(ctx context.Context, req ListTerritoriesRequest) ([]TerritoryWithoutGeometry, error)
	ListByParentGeoJSON(ctx context.Context, req ListTerritoriesRequest) (*geojson.FeatureCollection, error)

	ListTypes(ctx context.Context) ([]TerritoryType, error)
	CreateType(ctx context.Context, req CreateTerritoryTypeRequest) (TerritoryType, error)
}

var (
	ErrTerritoryNotFound   = errors.New("territory_not_found")
	ErrParentNotFound      = errors.New("parent_not_found")
	ErrTerritoryTypeExists = errors.New("territory_type_exists")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidGeometry     = errors.New("invalid_geometry")
)
