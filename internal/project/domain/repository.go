package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Field maps passed to the partial updates use column names as keys. Values
// may be gorm clause expressions for geometry columns.
type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Project, error)
	List(ctx context.Context, db *gorm.DB) ([]Project, error)
	Insert(ctx context.Context, db *gorm.DB, project *Project) error
	Update(ctx context.Context, db *gorm.DB, project *Project) error
	UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, values map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	FindDetailByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*TerritoryDetail, error)
	InsertDetail(ctx context.Context, db *gorm.DB, detail *TerritoryDetail, srid int) error
	UpdateDetail(ctx context.Context, db *gorm.DB, detail *TerritoryDetail, srid int) error
	UpdateDetailFields(ctx context.Context, db *gorm.DB, id snowflake.ID, values map[string]any) error
	DeleteDetail(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
