package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbanatlas/urban-api/internal/project/domain"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE projects_data (
		project_id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		project_territory_id INTEGER NOT NULL,
		description TEXT,
		public BOOLEAN NOT NULL,
		image_url TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`).Error)
	return db
}

func sampleProject(id snowflake.ID) *domain.Project {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Project{
		ProjectID:          id,
		UserID:             7,
		Name:               "waterfront",
		ProjectTerritoryID: id + 1000,
		Public:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestInsertAndFind(t *testing.T) {
	db := setupDB(t)
	r := Provide()
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, db, sampleProject(1)))

	found, err := r.FindByID(ctx, db, 1)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "waterfront", found.Name)
	assert.True(t, found.Public)
	assert.Equal(t, snowflake.ID(1001), found.ProjectTerritoryID)

	missing, err := r.FindByID(ctx, db, 2)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListOrdersByProjectID(t *testing.T) {
	db := setupDB(t)
	r := Provide()
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, db, sampleProject(3)))
	require.NoError(t, r.Insert(ctx, db, sampleProject(1)))
	require.NoError(t, r.Insert(ctx, db, sampleProject(2)))

	projects, err := r.List(ctx, db)
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, snowflake.ID(1), projects[0].ProjectID)
	assert.Equal(t, snowflake.ID(3), projects[2].ProjectID)
}

func TestUpdateFieldsPartial(t *testing.T) {
	db := setupDB(t)
	r := Provide()
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, db, sampleProject(1)))

	stamp := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	err := r.UpdateFields(ctx, db, 1, map[string]any{
		"name":       "harbour",
		"updated_at": stamp,
	})
	require.NoError(t, err)

	found, err := r.FindByID(ctx, db, 1)
	require.NoError(t, err)
	assert.Equal(t, "harbour", found.Name)
	assert.Equal(t, snowflake.ID(7), found.UserID)
	assert.True(t, stamp.Equal(found.UpdatedAt))
}

func TestDelete(t *testing.T) {
	db := setupDB(t)
	r := Provide()
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, db, sampleProject(1)))
	require.NoError(t, r.Delete(ctx, db, 1))

	found, err := r.FindByID(ctx, db, 1)
	require.NoError(t, err)
	assert.Nil(t, found)
}
