package extract

import (
	"context"
	"log"
	"time"

	"eva-finance/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Worker polls for unprocessed RawPost rows in bounded batches and claims
// them atomically (select-then-mark-processed inside a single transaction
// with row-level locking that skips already-locked rows) so concurrent
// workers never double-process the same row.
type Worker struct {
	db        *gorm.DB
	pipeline  *Pipeline
	batchSize int
	idleSleep time.Duration
}

func NewWorker(db *gorm.DB, pipeline *Pipeline, batchSize int, idleSleep time.Duration) *Worker {
	return &Worker{db: db, pipeline: pipeline, batchSize: batchSize, idleSleep: idleSleep}
}

// claimLock adds FOR UPDATE SKIP LOCKED on dialects with row-level locks.
// sqlite has none; its single-writer transactions already give a claim the
// same exclusivity.
func claimLock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	return tx
}

// RunOnce claims up to batchSize unprocessed raw posts, extracts each, and
// returns the number processed. Safe to call repeatedly and concurrently.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	var claimed []models.RawPost

	err := w.db.Transaction(func(tx *gorm.DB) error {
		if err := claimLock(tx).
			Where("processed = ?", false).
			Order("id ASC").
			Limit(w.batchSize).
			Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}
		ids := make([]uint64, len(claimed))
		for i, r := range claimed {
			ids[i] = r.ID
		}
		// Mark processed only after the processed rows are written. The
		// claim lock must still be held for the whole batch, so both the
		// processed rows and the flip happen inside this same transaction.
		for _, raw := range claimed {
			result := w.pipeline.Extract(raw.Text)
			processed := models.ProcessedPost{
				RawID:            raw.ID,
				Brands:           result.Brands,
				Tags:             result.Tags,
				Sentiment:        result.Sentiment,
				Intent:           result.Intent,
				Tickers:          result.Tickers,
				ProcessorVersion: result.ProcessorVersion,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "raw_id"}},
				DoNothing: true,
			}).Create(&processed).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.RawPost{}).Where("id IN ?", ids).Update("processed", true).Error
	})
	if err != nil {
		return 0, err
	}
	return len(claimed), nil
}

// Run is the work-conserving poll loop: claim a batch, and only sleep when
// the batch comes back empty.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[EXTRACT] shutting down")
			return
		default:
		}

		n, err := w.RunOnce(ctx)
		if err != nil {
			log.Printf("[EXTRACT] batch failed: %v", err)
			time.Sleep(w.idleSleep)
			continue
		}
		if n == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.idleSleep):
			}
			continue
		}
		log.Printf("[EXTRACT] processed %d raw posts", n)
	}
}
