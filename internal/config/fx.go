package config

import "go.uber.org/fx"

// Module wires application and spatial configuration.
var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewSpatialConfigHolder,
	),
)
