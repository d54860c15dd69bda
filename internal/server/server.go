package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urbanatlas/urban-api/internal/config"
	"github.com/urbanatlas/urban-api/internal/observability"
	obsmiddleware "github.com/urbanatlas/urban-api/internal/observability/logger"
	obsmetrics "github.com/urbanatlas/urban-api/internal/observability/metrics"
	obstracing "github.com/urbanatlas/urban-api/internal/observability/tracing"
	"github.com/urbanatlas/urban-api/internal/project"
	projectdomain "github.com/urbanatlas/urban-api/internal/project/domain"
	"github.com/urbanatlas/urban-api/internal/territory"
	territorydomain "github.com/urbanatlas/urban-api/internal/territory/domain"
	"github.com/urbanatlas/urban-api/internal/urbanobject"
	urbanobjectdomain "github.com/urbanatlas/urban-api/internal/urbanobject/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	territory.Module,
	urbanobject.Module,
	project.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	db             *gorm.DB
	genID          *snowflake.Node
	territorySvc   territorydomain.Service
	urbanObjectSvc urbanobjectdomain.Service
	projectSvc     projectdomain.Service
	obsMetrics     *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	DB             *gorm.DB
	GenID          *snowflake.Node
	TerritorySvc   territorydomain.Service
	UrbanObjectSvc urbanobjectdomain.Service
	ProjectSvc     projectdomain.Service
	ObsMetrics     *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		genID:          p.GenID,
		territorySvc:   p.TerritorySvc,
		urbanObjectSvc: p.UrbanObjectSvc,
		projectSvc:     p.ProjectSvc,
		obsMetrics:     p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	api.GET("/territory/:territory_id", s.GetTerritory)
	api.POST("/territory", s.CreateTerritory)
	api.GET("/territories", s.ListTerritories)
	api.GET("/territories_without_geometry", s.ListTerritoriesWithoutGeometry)
	api.GET("/territory_types", s.ListTerritoryTypes)
	api.POST("/territory_types", s.CreateTerritoryType)

	api.GET("/territory/:territory_id/services", s.ListTerritoryServices)
	api.GET("/territory/:territory_id/services_with_geometry", s.ListTerritoryServicesWithGeometry)
	api.GET("/territory/:territory_id/services_capacity", s.GetTerritoryServicesCapacity)
	api.GET("/territory/:territory_id/physical_objects", s.ListTerritoryPhysicalObjects)
	api.GET("/territory/:territory_id/physical_objects_with_geometry", s.ListTerritoryPhysicalObjectsWithGeometry)
	api.GET("/territory/:territory_id/living_buildings_with_geometry", s.ListTerritoryLivingBuildings)
	api.GET("/territory/:territory_id/functional_zones", s.ListTerritoryFunctionalZones)
	api.GET("/territory/:territory_id/indicators", s.ListTerritoryIndicators)
	api.GET("/territory/:territory_id/indicator_values", s.ListTerritoryIndicatorValues)

	api.POST("/projects", s.CreateProject)
	api.GET("/projects", s.ListProjects)
	api.GET("/projects/:project_id", s.GetProject)
	api.PUT("/projects/:project_id", s.PutProject)
	api.PATCH("/projects/:project_id", s.PatchProject)
	api.DELETE("/projects/:project_id", s.DeleteProject)
	api.GET("/projects/:project_id/territory", s.GetProjectTerritory)
}
