package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"eva-finance/internal/database"
	"eva-finance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedRaw(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		raw := models.RawPost{
			Source:     "community-feed",
			PlatformID: fmt.Sprintf("raw-%d", i),
			OccurredAt: time.Now().UTC(),
			Text:       "Switched from Nike to Hoka, way more comfortable for running",
		}
		require.NoError(t, db.Create(&raw).Error)
	}
}

func TestWorkerRunOnce_ProcessesClaimedBatch(t *testing.T) {
	db := testDB(t)
	seedRaw(t, db, 3)

	worker := NewWorker(db, NewPipeline(nil, NewHeuristic()), 20, time.Second)
	n, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var processedCount int64
	require.NoError(t, db.Model(&models.ProcessedPost{}).Count(&processedCount).Error)
	assert.Equal(t, int64(3), processedCount)

	var unprocessed int64
	require.NoError(t, db.Model(&models.RawPost{}).Where("processed = ?", false).Count(&unprocessed).Error)
	assert.Zero(t, unprocessed)
}

func TestWorkerRunOnce_RespectsBatchSize(t *testing.T) {
	db := testDB(t)
	seedRaw(t, db, 5)

	worker := NewWorker(db, NewPipeline(nil, NewHeuristic()), 2, time.Second)
	n, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var unprocessed int64
	require.NoError(t, db.Model(&models.RawPost{}).Where("processed = ?", false).Count(&unprocessed).Error)
	assert.Equal(t, int64(3), unprocessed)
}

func TestWorkerRunOnce_SecondRunOverProcessedRowsIsEmpty(t *testing.T) {
	db := testDB(t)
	seedRaw(t, db, 2)

	worker := NewWorker(db, NewPipeline(nil, NewHeuristic()), 20, time.Second)
	_, err := worker.RunOnce(context.Background())
	require.NoError(t, err)

	n, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	// Exactly one processed row per raw row survives.
	var processedCount int64
	require.NoError(t, db.Model(&models.ProcessedPost{}).Count(&processedCount).Error)
	assert.Equal(t, int64(2), processedCount)
}
