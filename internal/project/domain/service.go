package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/urbanatlas/urban-api/pkg/geojson"
)

type TerritoryDetailSpec struct {
	ParentID    *snowflake.ID
	Geometry    *geojson.Geometry
	CentrePoint *geojson.Geometry
	Properties  map[string]any
}

type CreateProjectRequest struct {
	UserID      snowflake.ID
	Name        string
	Description *string
	Public      bool
	ImageURL    *string
	Territory   TerritoryDetailSpec
}

type ReplaceProjectRequest struct {
	UserID      snowflake.ID
	Name        string
	Description *string
	Public      bool
	ImageURL    *string
	Territory   TerritoryDetailSpec
}

// PatchTerritoryDetailSpec applies only its non-nil members. A nil
// Properties map leaves the stored properties untouched.
type PatchTerritoryDetailSpec struct {
	ParentID    *snowflake.ID
	Geometry    *geojson.Geometry
	CentrePoint *geojson.Geometry
	Properties  map[string]any
}

type PatchProjectRequest struct {
	UserID      *snowflake.ID
	Name        *string
	Description *string
	Public      *bool
	ImageURL    *string
	Territory   *PatchTerritoryDetailSpec
}

type Service interface {
	Create(ctx context.Context, req CreateProjectRequest) (Project, error)
	GetByID(ctx context.Context, id snowflake.ID) (Project, error)
	List(ctx context.Context) ([]Project, error)
	GetTerritoryDetail(ctx context.Context, projectID snowflake.ID) (TerritoryDetail, error)
	Replace(ctx context.Context, id snowflake.ID, req ReplaceProjectRequest) (Project, error)
	Patch(ctx context.Context, id snowflake.ID, req PatchProjectRequest) (Project, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrProjectNotFound         = errors.New("project_not_found")
	ErrTerritoryDetailNotFound = errors.New("territory_detail_not_found")
	ErrInvalidName             = errors.New("invalid_name")
	ErrInvalidGeometry         = errors.New("invalid_geometry")
)
