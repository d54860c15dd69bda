package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbanatlas/urban-api/internal/config"
	"github.com/urbanatlas/urban-api/internal/territory/domain"
	"github.com/urbanatlas/urban-api/pkg/geojson"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type repoStub struct {
	territories map[snowflake.ID]domain.Territory
	types       map[string]domain.TerritoryType

	insertErr error
	deleted   []snowflake.ID
	listed    []domain.ListFilter
}

func newRepoStub() *repoStub {
	return &repoStub{
		territories: map[snowflake.ID]domain.Territory{},
		types:       map[string]domain.TerritoryType{},
	}
}

func (r *repoStub) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Territory, error) {
	territory, ok := r.territories[id]
	if !ok {
		return nil, nil
	}
	return &territory, nil
}

func (r *repoStub) Exists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	_, ok := r.territories[id]
	return ok, nil
}

func (r *repoStub) Insert(ctx context.Context, db *gorm.DB, territory *domain.Territory, srid int) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.territories[territory.TerritoryID] = *territory
	return nil
}

func (r *repoStub) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	r.deleted = append(r.deleted, id)
	delete(r.territories, id)
	return nil
}

func (r *repoStub) ListByParent(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Territory, error) {
	r.listed = append(r.listed, filter)
	var out []domain.Territory
	for _, territory := range r.territories {
		if matchesParent(territory.ParentID, filter.ParentID) {
			out = append(out, territory)
		}
	}
	return out, nil
}

func (r *repoStub) ListByParentWithoutGeometry(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.TerritoryWithoutGeometry, error) {
	r.listed = append(r.listed, filter)
	var out []domain.TerritoryWithoutGeometry
	for _, territory := range r.territories {
		if matchesParent(territory.ParentID, filter.ParentID) {
			out = append(out, domain.TerritoryWithoutGeometry{
				TerritoryID: territory.TerritoryID,
				ParentID:    territory.ParentID,
				Name:        territory.Name,
				Level:       territory.Level,
			})
		}
	}
	return out, nil
}

func (r *repoStub) ListTypes(ctx context.Context, db *gorm.DB) ([]domain.TerritoryType, error) {
	var out []domain.TerritoryType
	for _, territoryType := range r.types {
		out = append(out, territoryType)
	}
	return out, nil
}

func (r *repoStub) FindTypeByName(ctx context.Context, db *gorm.DB, name string) (*domain.TerritoryType, error) {
	territoryType, ok := r.types[name]
	if !ok {
		return nil, nil
	}
	return &territoryType, nil
}

func (r *repoStub) InsertType(ctx context.Context, db *gorm.DB, territoryType *domain.TerritoryType) error {
	r.types[territoryType.Name] = *territoryType
	return nil
}

func matchesParent(parentID *snowflake.ID, want snowflake.ID) bool {
	if want == 0 {
		return parentID == nil || *parentID == 0
	}
	return parentID != nil && *parentID == want
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func mustGeometry(t *testing.T, raw string) *geojson.Geometry {
	t.Helper()
	geometry, err := geojson.ParseString(raw)
	require.NoError(t, err)
	return geometry
}

func setupService(t *testing.T) (domain.Service, *repoStub) {
	t.Helper()
	stub := newRepoStub()
	svc := New(Params{
		Log:     zap.NewNop(),
		GenID:   mustNode(t),
		Repo:    stub,
		Spatial: &config.SpatialConfigHolder{},
	})
	return svc, stub
}

const polygonJSON = `{"type":"Polygon","coordinates":[[[30.22,59.86],[30.22,59.85],[30.25,59.85],[30.25,59.86],[30.22,59.86]]]}`
const pointJSON = `{"type":"Point","coordinates":[30.23,59.85]}`

func TestGetByIDNotFound(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.GetByID(context.Background(), snowflake.ID(404))
	assert.ErrorIs(t, err, domain.ErrTerritoryNotFound)
}

func TestCreateRootTerritory(t *testing.T) {
	svc, stub := setupService(t)

	created, err := svc.Create(context.Background(), domain.CreateTerritoryRequest{
		Name:        "Okrug",
		Geometry:    mustGeometry(t, polygonJSON),
		CentrePoint: mustGeometry(t, pointJSON),
		Level:       1,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.TerritoryID)
	assert.Nil(t, created.ParentID)
	assert.Contains(t, stub.territories, created.TerritoryID)
}

func TestCreateUnderExistingParent(t *testing.T) {
	svc, stub := setupService(t)

	parent, err := svc.Create(context.Background(), domain.CreateTerritoryRequest{
		Name:        "Okrug",
		Geometry:    mustGeometry(t, polygonJSON),
		CentrePoint: mustGeometry(t, pointJSON),
		Level:       1,
	})
	require.NoError(t, err)

	child, err := svc.Create(context.Background(), domain.CreateTerritoryRequest{
		Name:        "Rayon",
		ParentID:    parent.TerritoryID,
		Geometry:    mustGeometry(t, polygonJSON),
		CentrePoint: mustGeometry(t, pointJSON),
		Level:       2,
	})
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.TerritoryID, *child.ParentID)
	assert.Empty(t, stub.deleted)
}

func TestCreateMissingParentCompensates(t *testing.T) {
	svc, stub := setupService(t)

	_, err := svc.Create(context.Background(), domain.CreateTerritoryRequest{
		Name:        "Rayon",
		ParentID:    snowflake.ID(9000),
		Geometry:    mustGeometry(t, polygonJSON),
		CentrePoint: mustGeometry(t, pointJSON),
		Level:       2,
	})
	assert.ErrorIs(t, err, domain.ErrParentNotFound)

	// the provisional row must not survive the failed parent check
	require.Len(t, stub.deleted, 1)
	assert.NotContains(t, stub.territories, stub.deleted[0])
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Create(context.Background(), domain.CreateTerritoryRequest{
		Name:        "   ",
		Geometry:    mustGeometry(t, polygonJSON),
		CentrePoint: mustGeometry(t, pointJSON),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestCreateRejectsMissingGeometry(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Create(context.Background(), domain.CreateTerritoryRequest{
		Name:        "Okrug",
		CentrePoint: mustGeometry(t, pointJSON),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidGeometry)
}

func TestListByParentUnknownParent(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.ListByParent(context.Background(), domain.ListTerritoriesRequest{
		ParentID: snowflake.ID(777),
	})
	assert.ErrorIs(t, err, domain.ErrParentNotFound)
}

func TestListByParentCarriesDepthCap(t *testing.T) {
	svc, stub := setupService(t)

	_, err := svc.ListByParent(context.Background(), domain.ListTerritoriesRequest{AllLevels: true})
	require.NoError(t, err)
	require.Len(t, stub.listed, 1)
	assert.Equal(t, config.DefaultSpatialConfig().MaxTreeDepth, stub.listed[0].MaxDepth)
}

func TestListByParentGeoJSONSkipsNilGeometry(t *testing.T) {
	svc, stub := setupService(t)
	node := mustNode(t)

	withGeometry := node.Generate()
	stub.territories[withGeometry] = domain.Territory{
		TerritoryID: withGeometry,
		Name:        "Okrug",
		Geometry:    mustGeometry(t, polygonJSON),
		CentrePoint: mustGeometry(t, pointJSON),
		Level:       1,
	}
	withoutGeometry := node.Generate()
	stub.territories[withoutGeometry] = domain.Territory{
		TerritoryID: withoutGeometry,
		Name:        "Bare",
		Level:       1,
	}

	collection, err := svc.ListByParentGeoJSON(context.Background(), domain.ListTerritoriesRequest{})
	require.NoError(t, err)
	require.Len(t, collection.Features, 1)
	assert.Equal(t, "Okrug", collection.Features[0].Properties["name"])

	code, err := collection.CRS.Code()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSpatialConfig().CRSCode, code)
}

func TestCreateTypeRejectsDuplicate(t *testing.T) {
	svc, _ := setupService(t)

	first, err := svc.CreateType(context.Background(), domain.CreateTerritoryTypeRequest{Name: "city"})
	require.NoError(t, err)
	assert.NotZero(t, first.TerritoryTypeID)

	_, err = svc.CreateType(context.Background(), domain.CreateTerritoryTypeRequest{Name: "city"})
	assert.ErrorIs(t, err, domain.ErrTerritoryTypeExists)
}

func TestCreateTypeRejectsBlankName(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.CreateType(context.Background(), domain.CreateTerritoryTypeRequest{Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}
