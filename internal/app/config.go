package app

import (
	"github.com/ortoqbank/ortoqbank-backend/internal/aggregate"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/envutil"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
)

type Config struct {
	Addr          string
	LogMode       string
	AggregateCfg  aggregate.Config
	RebuildOnBoot bool
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Addr:    envutil.String("HTTP_ADDR", ":8080"),
		LogMode: envutil.String("LOG_MODE", "development"),
		AggregateCfg: aggregate.Config{
			MaxNodeSize: envutil.Int("AGGREGATE_MAX_NODE_SIZE", 16),
			LazyRoot:    envutil.Bool("AGGREGATE_LAZY_ROOT", true),
		},
		RebuildOnBoot: envutil.Bool("AGGREGATE_REBUILD_ON_BOOT", true),
	}
	log.Info("Config loaded", "addr", cfg.Addr, "max_node_size", cfg.AggregateCfg.MaxNodeSize, "lazy_root", cfg.AggregateCfg.LazyRoot)
	return cfg
}
