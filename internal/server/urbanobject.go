package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	urbanobjectdomain "github.com/urbanatlas/urban-api/internal/urbanobject/domain"
)

func (s *Server) ListTerritoryServices(c *gin.Context) {
	territoryID, typeID, ok := territoryEntityParams(c, "service_type_id")
	if !ok {
		return
	}

	resp, err := s.urbanObjectSvc.ListServices(c.Request.Context(), urbanobjectdomain.ListServicesRequest{
		TerritoryID:   territoryID,
		ServiceTypeID: typeID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTerritoryServicesWithGeometry(c *gin.Context) {
	territoryID, typeID, ok := territoryEntityParams(c, "service_type_id")
	if !ok {
		return
	}

	req := urbanobjectdomain.ListServicesRequest{
		TerritoryID:   territoryID,
		ServiceTypeID: typeID,
	}

	if wantsGeoJSON(c) {
		collection, err := s.urbanObjectSvc.ListServicesGeoJSON(c.Request.Context(), req)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, collection)
		return
	}

	resp, err := s.urbanObjectSvc.ListServicesWithGeometry(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTerritoryServicesCapacity(c *gin.Context) {
	territoryID, typeID, ok := territoryEntityParams(c, "service_type_id")
	if !ok {
		return
	}

	total, err := s.urbanObjectSvc.ServicesCapacity(c.Request.Context(), urbanobjectdomain.ServicesCapacityRequest{
		TerritoryID:   territoryID,
		ServiceTypeID: typeID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"capacity": total}})
}

func (s *Server) ListTerritoryPhysicalObjects(c *gin.Context) {
	territoryID, typeID, ok := territoryEntityParams(c, "physical_object_type_id")
	if !ok {
		return
	}

	resp, err := s.urbanObjectSvc.ListPhysicalObjects(c.Request.Context(), urbanobjectdomain.ListPhysicalObjectsRequest{
		TerritoryID:          territoryID,
		PhysicalObjectTypeID: typeID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTerritoryPhysicalObjectsWithGeometry(c *gin.Context) {
	territoryID, typeID, ok := territoryEntityParams(c, "physical_object_type_id")
	if !ok {
		return
	}

	req := urbanobjectdomain.ListPhysicalObjectsRequest{
		TerritoryID:          territoryID,
		PhysicalObjectTypeID: typeID,
	}

	if wantsGeoJSON(c) {
		collection, err := s.urbanObjectSvc.ListPhysicalObjectsGeoJSON(c.Request.Context(), req)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, collection)
		return
	}

	resp, err := s.urbanObjectSvc.ListPhysicalObjectsWithGeometry(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTerritoryLivingBuildings(c *gin.Context) {
	territoryID, err := parseSnowflakeParam(c.Param("territory_id"))
	if err != nil {
		AbortWithError(c, newValidationError("territory_id", "invalid_territory_id", "invalid territory id"))
		return
	}

	resp, err := s.urbanObjectSvc.ListLivingBuildingsWithGeometry(c.Request.Context(), territoryID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTerritoryFunctionalZones(c *gin.Context) {
	territoryID, typeID, ok := territoryEntityParams(c, "functional_zone_type_id")
	if !ok {
		return
	}

	resp, err := s.urbanObjectSvc.ListFunctionalZones(c.Request.Context(), urbanobjectdomain.ListFunctionalZonesRequest{
		TerritoryID:          territoryID,
		FunctionalZoneTypeID: typeID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTerritoryIndicators(c *gin.Context) {
	territoryID, err := parseSnowflakeParam(c.Param("territory_id"))
	if err != nil {
		AbortWithError(c, newValidationError("territory_id", "invalid_territory_id", "invalid territory id"))
		return
	}

	resp, err := s.urbanObjectSvc.ListIndicators(c.Request.Context(), territoryID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTerritoryIndicatorValues(c *gin.Context) {
	territoryID, err := parseSnowflakeParam(c.Param("territory_id"))
	if err != nil {
		AbortWithError(c, newValidationError("territory_id", "invalid_territory_id", "invalid territory id"))
		return
	}

	dateValue, err := parseOptionalTime(c.Query("date_value"))
	if err != nil {
		AbortWithError(c, newValidationError("date_value", "invalid_date_value", "invalid date value"))
		return
	}

	var dateType *string
	if trimmed := strings.TrimSpace(c.Query("date_type")); trimmed != "" {
		dateType = &trimmed
	}

	resp, err := s.urbanObjectSvc.ListIndicatorValues(c.Request.Context(), urbanobjectdomain.ListIndicatorValuesRequest{
		TerritoryID: territoryID,
		Filter: urbanobjectdomain.IndicatorValueFilter{
			DateType:  dateType,
			DateValue: dateValue,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func territoryEntityParams(c *gin.Context, typeParam string) (snowflake.ID, *snowflake.ID, bool) {
	territoryID, err := parseSnowflakeParam(c.Param("territory_id"))
	if err != nil {
		AbortWithError(c, newValidationError("territory_id", "invalid_territory_id", "invalid territory id"))
		return 0, nil, false
	}

	typeID, err := parseOptionalSnowflakeID(c.Query(typeParam))
	if err != nil {
		AbortWithError(c, newValidationError(typeParam, "invalid_"+typeParam, "invalid "+typeParam))
		return 0, nil, false
	}

	return territoryID, typeID, true
}

func wantsGeoJSON(c *gin.Context) bool {
	return strings.EqualFold(strings.TrimSpace(c.Query("format")), "geojson")
}
