package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/erp/labelprint/internal/infrastructure/config"
	"github.com/erp/labelprint/internal/infrastructure/telemetry"
)

type printedSheet struct {
	ID     uint `gorm:"primaryKey"`
	Format string
}

func TestDBMetrics_RecordQuery(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := telemetry.NewMeterProviderWithReader(reader, nil)
	m, err := telemetry.NewDBMetrics(mp.Meter("db.client"), telemetry.DBMetricsConfig{
		SlowQueryThreshold: 200 * time.Millisecond,
	}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordQuery(ctx, "select", "label_jobs", 10*time.Millisecond)
	m.RecordQuery(ctx, "SELECT", "label_jobs", 300*time.Millisecond)
	m.RecordQuery(ctx, "", "", 500*time.Millisecond)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, got["db_query_total"], telemetry.AttrDBOperation.String("SELECT")))
	assert.Equal(t, int64(1), sumFor(t, got["db_query_total"], telemetry.AttrDBOperation.String("UNKNOWN")))
	assert.Equal(t, int64(1), sumFor(t, got["db_slow_query_total"], telemetry.AttrDBTable.String("label_jobs")))
	assert.Equal(t, int64(1), sumFor(t, got["db_slow_query_total"], telemetry.AttrDBTable.String("unknown")))
}

func TestNewDBMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewDBMetrics(nil, telemetry.DefaultDBMetricsConfig(), nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestRegisterDBMetrics(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	reader := sdkmetric.NewManualReader()
	mp := telemetry.NewMeterProviderWithReader(reader, nil)
	ctx := context.Background()

	m, err := telemetry.RegisterDBMetrics(ctx, db, mp, telemetry.DefaultDBMetricsConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, m)
	t.Cleanup(m.Stop)

	require.NoError(t, db.AutoMigrate(&printedSheet{}))
	require.NoError(t, db.Create(&printedSheet{Format: "STANDARD_30"}).Error)
	require.NoError(t, db.Create(&printedSheet{Format: "LARGE_10"}).Error)
	var sheets []printedSheet
	require.NoError(t, db.Find(&sheets).Error)
	require.Len(t, sheets, 2)

	// Stop waits for the first pool sample
	m.Stop()

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, got["db_query_total"], telemetry.AttrDBOperation.String("INSERT")))
	assert.GreaterOrEqual(t, sumFor(t, got["db_query_total"], telemetry.AttrDBOperation.String("SELECT")), int64(1))

	poolMax, ok := got["db_pool_connections_max"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, poolMax.DataPoints, 1)
	assert.Equal(t, int64(1), poolMax.DataPoints[0].Value)
}

func TestRegisterDBMetrics_DisabledProvider(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	mp, err := telemetry.NewMeterProvider(context.Background(), config.TelemetryConfig{}, nil)
	require.NoError(t, err)

	m, err := telemetry.RegisterDBMetrics(context.Background(), db, mp, telemetry.DefaultDBMetricsConfig(), nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}
