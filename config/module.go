package config

import "go.uber.org/fx"

// Module provides the loaded Config to the fx graph.
var Module = fx.Module("config",
	fx.Provide(func() (*Config, error) {
		cfg, _, err := Load(nil)
		return cfg, err
	}),
)
