package territory

import (
	"github.com/urbanatlas/urban-api/internal/territory/repository"
	"github.com/urbanatlas/urban-api/internal/territory/service"
	"go.uber.org/fx"
)

var Module = fx.Module("territory.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
