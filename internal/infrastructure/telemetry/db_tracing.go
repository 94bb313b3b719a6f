package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterGormTracing installs the otelgorm plugin on db.
// Query variables are never attached to spans.
func RegisterGormTracing(db *gorm.DB, dbName string, logger *zap.Logger) error {
	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(dbName),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("Database tracing enabled", zap.String("db_name", dbName))
	}
	return nil
}
