package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SpatialConfig carries the spatial tunables read from spatial.yml.
type SpatialConfig struct {
	// SRID used when writing geometry literals.
	SRID int `mapstructure:"srid"`
	// CRSCode declared on produced feature collections.
	CRSCode int `mapstructure:"crsCode"`
	// MaxTreeDepth caps territory-tree frontier expansion.
	MaxTreeDepth int `mapstructure:"maxTreeDepth"`
}

func DefaultSpatialConfig() SpatialConfig {
	return SpatialConfig{
		SRID:         4326,
		CRSCode:      4326,
		MaxTreeDepth: 32,
	}
}

type SpatialConfigHolder struct {
	current atomic.Value // holds SpatialConfig
}

func NewSpatialConfigHolder() (*SpatialConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("spatial")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/urban-api/config") // Volume-mounted config
	v.AddConfigPath("/etc/urban-api")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	v.SetEnvPrefix("URBANAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultSpatialConfig()
		v.SetDefault("spatial.srid", defaults.SRID)
		v.SetDefault("spatial.crsCode", defaults.CRSCode)
		v.SetDefault("spatial.maxTreeDepth", defaults.MaxTreeDepth)
	}

	var cfg SpatialConfig
	if err := v.UnmarshalKey("spatial", &cfg); err != nil {
		return nil, err
	}
	if err := validateSpatialConfig(cfg); err != nil {
		return nil, err
	}

	holder := &SpatialConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated SpatialConfig
		if err := v.UnmarshalKey("spatial", &updated); err != nil {
			log.Printf("[spatial-config] reload failed: %v", err)
			return
		}
		if err := validateSpatialConfig(updated); err != nil {
			log.Printf("[spatial-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[spatial-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *SpatialConfigHolder) Get() SpatialConfig {
	if cfg, ok := h.current.Load().(SpatialConfig); ok {
		return cfg
	}
	return DefaultSpatialConfig()
}

func validateSpatialConfig(cfg SpatialConfig) error {
	if cfg.SRID <= 0 {
		return errors.New("spatial.srid must be positive")
	}
	if cfg.CRSCode <= 0 {
		return errors.New("spatial.crsCode must be positive")
	}
	if cfg.MaxTreeDepth <= 0 {
		return errors.New("spatial.maxTreeDepth must be positive")
	}
	return nil
}
