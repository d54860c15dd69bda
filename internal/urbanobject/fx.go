package urbanobject

import (
	"github.com/urbanatlas/urban-api/internal/urbanobject/repository"
	"github.com/urbanatlas/urban-api/internal/urbanobject/service"
	"go.uber.org/fx"
)

var Module = fx.Module("urbanobject.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
