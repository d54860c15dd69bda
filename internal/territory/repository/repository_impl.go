package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/urbanatlas/urban-api/internal/territory/domain"
	"github.com/urbanatlas/urban-api/pkg/geojson"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const territoryColumns = `territory_id, territory_type_id, parent_id, name,
	ST_AsGeoJSON(geometry) AS geometry,
	ST_AsGeoJSON(centre_point) AS centre_point,
	level, properties, admin_center, okato_code`

const territoryColumnsWithoutGeometry = `territory_id, territory_type_id, parent_id, name,
	level, properties, admin_center, okato_code`

type territoryRow struct {
	TerritoryID     snowflake.ID
	TerritoryTypeID *snowflake.ID
	ParentID        *snowflake.ID
	Name            string
	Geometry        *string
	CentrePoint     *string
	Level           int
	Properties      datatypes.JSONMap
	AdminCenter     *string
	OkatoCode       *string
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Territory, error) {
	var row territoryRow
	err := db.WithContext(ctx).Raw(
		`SELECT `+territoryColumns+` FROM territories_data WHERE territory_id = ?`, id,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.TerritoryID == 0 {
		return nil, nil
	}
	territory, err := row.toTerritory()
	if err != nil {
		return nil, err
	}
	return &territory, nil
}

func (r *repo) Exists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM territories_data WHERE territory_id = ?`, id,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, territory *domain.Territory, srid int) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO territories_data
		 (territory_id, territory_type_id, parent_id, name, geometry, centre_point, level, properties, admin_center, okato_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		territory.TerritoryID,
		territory.TerritoryTypeID,
		territory.ParentID,
		territory.Name,
		territory.Geometry.GeomFromText(srid),
		territory.CentrePoint.GeomFromText(srid),
		territory.Level,
		territory.Properties,
		territory.AdminCenter,
		territory.OkatoCode,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM territories_data WHERE territory_id = ?`, id,
	).Error
}

func (r *repo) ListByParent(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Territory, error) {
	var rows []territoryRow
	switch {
	case filter.ParentID == 0:
		// recursive flag is a no-op at root: the seed set already is every
		// top-level territory, descendants are not expanded.
		err := db.WithContext(ctx).Raw(
			`SELECT `+territoryColumns+` FROM territories_data
			 WHERE parent_id IS NULL OR parent_id = 0
			 ORDER BY territory_id`,
		).Scan(&rows).Error
		if err != nil {
			return nil, err
		}
	case !filter.AllLevels:
		err := db.WithContext(ctx).Raw(
			`SELECT `+territoryColumns+` FROM territories_data
			 WHERE parent_id = ?
			 ORDER BY territory_id`, filter.ParentID,
		).Scan(&rows).Error
		if err != nil {
			return nil, err
		}
	default:
		collected, err := collectDescendants(ctx, db,
			`SELECT `+territoryColumns+` FROM territories_data WHERE parent_id IN ?`,
			filter.ParentID, filter.MaxDepth,
			func(row territoryRow) snowflake.ID { return row.TerritoryID },
		)
		if err != nil {
			return nil, err
		}
		rows = collected
	}

	territories := make([]domain.Territory, 0, len(rows))
	for _, row := range rows {
		if filter.TerritoryTypeID != nil && !sameTypeID(row.TerritoryTypeID, *filter.TerritoryTypeID) {
			continue
		}
		territory, err := row.toTerritory()
		if err != nil {
			return nil, err
		}
		territories = append(territories, territory)
	}
	return territories, nil
}

func (r *repo) ListByParentWithoutGeometry(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.TerritoryWithoutGeometry, error) {
	var rows []territoryRow
	switch {
	case filter.ParentID == 0:
		err := db.WithContext(ctx).Raw(
			`SELECT `+territoryColumnsWithoutGeometry+` FROM territories_data
			 WHERE parent_id IS NULL OR parent_id = 0
			 ORDER BY territory_id`,
		).Scan(&rows).Error
		if err != nil {
			return nil, err
		}
	case !filter.AllLevels:
		err := db.WithContext(ctx).Raw(
			`SELECT `+territoryColumnsWithoutGeometry+` FROM territories_data
			 WHERE parent_id = ?
			 ORDER BY territory_id`, filter.ParentID,
		).Scan(&rows).Error
		if err != nil {
			return nil, err
		}
	default:
		// continuation queries use the same projection as the seed query, so
		// geometry columns are never fetched on this path.
		collected, err := collectDescendants(ctx, db,
			`SELECT `+territoryColumnsWithoutGeometry+` FROM territories_data WHERE parent_id IN ?`,
			filter.ParentID, filter.MaxDepth,
			func(row territoryRow) snowflake.ID { return row.TerritoryID },
		)
		if err != nil {
			return nil, err
		}
		rows = collected
	}

	territories := make([]domain.TerritoryWithoutGeometry, 0, len(rows))
	for _, row := range rows {
		if filter.TerritoryTypeID != nil && !sameTypeID(row.TerritoryTypeID, *filter.TerritoryTypeID) {
			continue
		}
		territories = append(territories, row.toTerritoryWithoutGeometry())
	}
	return territories, nil
}

// collectDescendants expands the parent relation breadth-first: fetch the
// children of the current frontier, add unseen rows, advance. The seen set
// guards against parent cycles, maxDepth (when positive) caps expansion.
func collectDescendants[T any](
	ctx context.Context,
	db *gorm.DB,
	selectSQL string,
	root snowflake.ID,
	maxDepth int,
	idOf func(T) snowflake.ID,
) ([]T, error) {
	frontier := []snowflake.ID{root}
	seen := map[snowflake.ID]struct{}{root: {}}
	var out []T

	for depth := 0; len(frontier) > 0; depth++ {
		if maxDepth > 0 && depth >= maxDepth {
			break
		}
		var batch []T
		if err := db.WithContext(ctx).Raw(selectSQL, frontier).Scan(&batch).Error; err != nil {
			return nil, err
		}
		next := make([]snowflake.ID, 0, len(batch))
		for _, row := range batch {
			id := idOf(row)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, row)
			next = append(next, id)
		}
		frontier = next
	}
	return out, nil
}

func (r *repo) ListTypes(ctx context.Context, db *gorm.DB) ([]domain.TerritoryType, error) {
	var types []domain.TerritoryType
	err := db.WithContext(ctx).Raw(
		`SELECT territory_type_id, name FROM territory_types_dict ORDER BY territory_type_id`,
	).Scan(&types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}

func (r *repo) FindTypeByName(ctx context.Context, db *gorm.DB, name string) (*domain.TerritoryType, error) {
	var territoryType domain.TerritoryType
	err := db.WithContext(ctx).Raw(
		`SELECT territory_type_id, name FROM territory_types_dict WHERE name = ?`, name,
	).Scan(&territoryType).Error
	if err != nil {
		return nil, err
	}
	if territoryType.TerritoryTypeID == 0 {
		return nil, nil
	}
	return &territoryType, nil
}

func (r *repo) InsertType(ctx context.Context, db *gorm.DB, territoryType *domain.TerritoryType) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO territory_types_dict (territory_type_id, name) VALUES (?, ?)`,
		territoryType.TerritoryTypeID,
		territoryType.Name,
	).Error
}

func sameTypeID(typeID *snowflake.ID, want snowflake.ID) bool {
	return typeID != nil && *typeID == want
}

func (row territoryRow) toTerritory() (domain.Territory, error) {
	territory := domain.Territory{
		TerritoryID:     row.TerritoryID,
		TerritoryTypeID: row.TerritoryTypeID,
		ParentID:        row.ParentID,
		Name:            row.Name,
		Level:           row.Level,
		Properties:      row.Properties,
		AdminCenter:     row.AdminCenter,
		OkatoCode:       row.OkatoCode,
	}
	if row.Geometry != nil {
		geometry, err := geojson.ParseString(*row.Geometry)
		if err != nil {
			return domain.Territory{}, err
		}
		territory.Geometry = geometry
	}
	if row.CentrePoint != nil {
		centre, err := geojson.ParseString(*row.CentrePoint)
		if err != nil {
			return domain.Territory{}, err
		}
		territory.CentrePoint = centre
	}
	return territory, nil
}

func (row territoryRow) toTerritoryWithoutGeometry() domain.TerritoryWithoutGeometry {
	return domain.TerritoryWithoutGeometry{
		TerritoryID:     row.TerritoryID,
		TerritoryTypeID: row.TerritoryTypeID,
		ParentID:        row.ParentID,
		Name:            row.Name,
		Level:           row.Level,
		Properties:      row.Properties,
		AdminCenter:     row.AdminCenter,
		OkatoCode:       row.OkatoCode,
	}
}
