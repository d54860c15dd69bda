package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbanatlas/urban-api/internal/config"
	"github.com/urbanatlas/urban-api/internal/project/domain"
	"github.com/urbanatlas/urban-api/pkg/geojson"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// repoStub keeps both tables in memory and records every partial update so
// tests can assert which side was written.
type repoStub struct {
	projects map[snowflake.ID]domain.Project
	details  map[snowflake.ID]domain.TerritoryDetail

	projectUpdates []map[string]any
	detailUpdates  []map[string]any
}

func newRepoStub() *repoStub {
	return &repoStub{
		projects: map[snowflake.ID]domain.Project{},
		details:  map[snowflake.ID]domain.TerritoryDetail{},
	}
}

func (r *repoStub) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Project, error) {
	project, ok := r.projects[id]
	if !ok {
		return nil, nil
	}
	return &project, nil
}

func (r *repoStub) List(ctx context.Context, db *gorm.DB) ([]domain.Project, error) {
	var out []domain.Project
	for _, project := range r.projects {
		out = append(out, project)
	}
	return out, nil
}

func (r *repoStub) Insert(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	r.projects[project.ProjectID] = *project
	return nil
}

func (r *repoStub) Update(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	r.projects[project.ProjectID] = *project
	return nil
}

func (r *repoStub) UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, values map[string]any) error {
	r.projectUpdates = append(r.projectUpdates, values)
	project := r.projects[id]
	if name, ok := values["name"].(string); ok {
		project.Name = name
	}
	if stamp, ok := values["updated_at"].(time.Time); ok {
		project.UpdatedAt = stamp
	}
	r.projects[id] = project
	return nil
}

func (r *repoStub) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	delete(r.projects, id)
	return nil
}

func (r *repoStub) FindDetailByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.TerritoryDetail, error) {
	detail, ok := r.details[id]
	if !ok {
		return nil, nil
	}
	return &detail, nil
}

func (r *repoStub) InsertDetail(ctx context.Context, db *gorm.DB, detail *domain.TerritoryDetail, srid int) error {
	r.details[detail.ProjectTerritoryID] = *detail
	return nil
}

func (r *repoStub) UpdateDetail(ctx context.Context, db *gorm.DB, detail *domain.TerritoryDetail, srid int) error {
	r.details[detail.ProjectTerritoryID] = *detail
	return nil
}

func (r *repoStub) UpdateDetailFields(ctx context.Context, db *gorm.DB, id snowflake.ID, values map[string]any) error {
	r.detailUpdates = append(r.detailUpdates, values)
	return nil
}

func (r *repoStub) DeleteDetail(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	delete(r.details, id)
	return nil
}

func setupService(t *testing.T) (domain.Service, *repoStub) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	stub := newRepoStub()
	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    stub,
		Spatial: &config.SpatialConfigHolder{},
	})
	return svc, stub
}

func mustGeometry(t *testing.T, raw string) *geojson.Geometry {
	t.Helper()
	geometry, err := geojson.ParseString(raw)
	require.NoError(t, err)
	return geometry
}

func createRequest(t *testing.T) domain.CreateProjectRequest {
	t.Helper()
	return domain.CreateProjectRequest{
		UserID: 7,
		Name:   "waterfront",
		Public: true,
		Territory: domain.TerritoryDetailSpec{
			Geometry:    mustGeometry(t, `{"type":"Polygon","coordinates":[[[30.22,59.86],[30.22,59.85],[30.25,59.85],[30.25,59.86],[30.22,59.86]]]}`),
			CentrePoint: mustGeometry(t, `{"type":"Point","coordinates":[30.23,59.85]}`),
			Properties:  map[string]any{"status": "draft"},
		},
	}
}

func TestCreatePairsProjectWithDetail(t *testing.T) {
	svc, stub := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createRequest(t))
	require.NoError(t, err)
	require.NotZero(t, created.ProjectID)
	require.NotZero(t, created.ProjectTerritoryID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	detail, err := svc.GetTerritoryDetail(ctx, created.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, created.ProjectTerritoryID, detail.ProjectTerritoryID)
	assert.Equal(t, "draft", detail.Properties["status"])
	assert.Contains(t, stub.details, detail.ProjectTerritoryID)
}

func TestCreateRejectsMissingGeometry(t *testing.T) {
	svc, _ := setupService(t)

	req := createRequest(t)
	req.Territory.Geometry = nil
	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidGeometry)
}

func TestGetByIDNotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.GetByID(context.Background(), snowflake.ID(404))
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestDeleteRemovesBothRows(t *testing.T) {
	svc, stub := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createRequest(t))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ProjectID))
	assert.Empty(t, stub.projects)
	assert.Empty(t, stub.details)

	_, err = svc.GetByID(ctx, created.ProjectID)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	_, err = svc.GetTerritoryDetail(ctx, created.ProjectID)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestDeleteUnknownProject(t *testing.T) {
	svc, _ := setupService(t)

	err := svc.Delete(context.Background(), snowflake.ID(404))
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestPatchNameOnlyLeavesDetailUntouched(t *testing.T) {
	svc, stub := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createRequest(t))
	require.NoError(t, err)
	before := created.UpdatedAt

	name := "harbour"
	patched, err := svc.Patch(ctx, created.ProjectID, domain.PatchProjectRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "harbour", patched.Name)
	assert.True(t, patched.UpdatedAt.After(before))

	require.Len(t, stub.projectUpdates, 1)
	assert.Contains(t, stub.projectUpdates[0], "updated_at")
	assert.Empty(t, stub.detailUpdates)
}

func TestPatchTerritoryOnlySkipsProjectUpdate(t *testing.T) {
	svc, stub := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createRequest(t))
	require.NoError(t, err)

	centre := mustGeometry(t, `{"type":"Point","coordinates":[30.24,59.86]}`)
	_, err = svc.Patch(ctx, created.ProjectID, domain.PatchProjectRequest{
		Territory: &domain.PatchTerritoryDetailSpec{CentrePoint: centre},
	})
	require.NoError(t, err)

	assert.Empty(t, stub.projectUpdates)
	require.Len(t, stub.detailUpdates, 1)
	assert.Contains(t, stub.detailUpdates[0], "centre_point")
	assert.NotContains(t, stub.detailUpdates[0], "geometry")
}

func TestPatchUnknownProject(t *testing.T) {
	svc, _ := setupService(t)

	name := "harbour"
	_, err := svc.Patch(context.Background(), snowflake.ID(404), domain.PatchProjectRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestReplaceOverwritesBothSides(t *testing.T) {
	svc, stub := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createRequest(t))
	require.NoError(t, err)

	replaced, err := svc.Replace(ctx, created.ProjectID, domain.ReplaceProjectRequest{
		UserID: 8,
		Name:   "harbour",
		Public: false,
		Territory: domain.TerritoryDetailSpec{
			Geometry:    mustGeometry(t, `{"type":"Point","coordinates":[30.3,59.9]}`),
			CentrePoint: mustGeometry(t, `{"type":"Point","coordinates":[30.3,59.9]}`),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "harbour", replaced.Name)
	assert.Equal(t, snowflake.ID(8), replaced.UserID)
	assert.Equal(t, created.ProjectTerritoryID, replaced.ProjectTerritoryID)

	detail := stub.details[created.ProjectTerritoryID]
	assert.Equal(t, geojson.TypePoint, detail.Geometry.GeometryType())
}
