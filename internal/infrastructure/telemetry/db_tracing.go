package telemetry

import (
	"github.com/hazina/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
)

// GormPlugins returns the GORM plugins that trace every query, or none when
// telemetry is disabled. Query variables are never attached to spans since
// they carry phone numbers and amounts.
func GormPlugins(cfg config.TelemetryConfig, dbCfg config.DatabaseConfig) []gorm.Plugin {
	if !cfg.Enabled {
		return nil
	}
	system := "postgresql"
	if dbCfg.Driver == "sqlite" {
		system = "sqlite"
	}
	return []gorm.Plugin{
		otelgorm.NewPlugin(
			otelgorm.WithDBName(dbCfg.DBName),
			otelgorm.WithAttributes(dbSystem(system)),
			otelgorm.WithoutQueryVariables(),
		),
	}
}
