package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/urbanatlas/urban-api/pkg/geojson"
	"gorm.io/datatypes"
)

// Territory is a node of the administrative hierarchy. A nil or zero ParentID
// denotes a root. Geometry fields are carried in GeoJSON form once read.
type Territory struct {
	TerritoryID     snowflake.ID      `json:"territory_id"`
	TerritoryTypeID *snowflake.ID     `json:"territory_type_id,omitempty"`
	ParentID        *snowflake.ID     `json:"parent_id,omitempty"`
	Name            string            `json:"name"`
	Geometry        *geojson.Geometry `json:"geometry"`
	CentrePoint     *geojson.Geometry `json:"centre_point"`
	Level           int               `json:"level"`
	Properties      datatypes.JSONMap `json:"properties"`
	AdminCenter     *string           `json:"admin_center,omitempty"`
	OkatoCode       *string           `json:"okato_code,omitempty"`
}

// TerritoryWithoutGeometry is the cheaper projection used where geometry
// payloads are not needed.
type TerritoryWithoutGeometry struct {
	TerritoryID     snowflake.ID      `json:"territory_id"`
	TerritoryTypeID *snowflake.ID     `json:"territory_type_id,omitempty"`
	ParentID        *snowflake.ID     `json:"parent_id,omitempty"`
	Name            string            `json:"name"`
	Level           int               `json:"level"`
	Properties      datatypes.JSONMap `json:"properties"`
	AdminCenter     *string           `json:"admin_center,omitempty"`
	OkatoCode       *string           `json:"okato_code,omitempty"`
}

// TerritoryType is a dictionary entry with a unique name.
type TerritoryType struct {
	TerritoryTypeID snowflake.ID `json:"territory_type_id"`
	Name            string       `json:"name"`
}
