package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListFilter selects territories by parent. ParentID 0 addresses the roots.
// AllLevels switches direct children to the full descendant set. The type
// filter applies to emitted rows only, never to traversal.
type ListFilter struct {
	ParentID        snowflake.ID
	AllLevels       bool
	TerritoryTypeID *snowflake.ID
	MaxDepth        int
}

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Territory, error)
	Exists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	Insert(ctx context.Context, db *gorm.DB, territory *Territory, srid int) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	ListByParent(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Territory, error)
	ListByParentWithoutGeometry(ctx context.Context, db *gorm.DB, filter ListFilter) ([]TerritoryWithoutGeometry, error)

	ListTypes(ctx context.Context, db *gorm.DB) ([]TerritoryType, error)
	FindTypeByName(ctx context.Context, db *gorm.DB, name string) (*TerritoryType, error)
	InsertType(ctx context.Context, db *gorm.DB, territoryType *TerritoryType) error
}
