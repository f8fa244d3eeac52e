// Package notify implements the notifier claim/deliver loop: approved
// drafts are claimed transactionally with skip-locked semantics, delivered
// to the push gateway at-least-once, and bounded by a poison attempts cap.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"eva-finance/internal/evaerr"
	"eva-finance/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// deliveryNamespace seeds the deterministic delivery-id UUIDs below. A
// fixed namespace means the same draft always maps to the same id across
// retries, which is what the push gateway needs to dedupe a redelivered
// notification.
var deliveryNamespace = uuid.MustParse("8f14e45f-ceea-467e-bd47-4b4bf1e6bb76")

// Notifier claims approved, unnotified drafts and delivers them to the
// push gateway.
type Notifier struct {
	db          *gorm.DB
	client      *resty.Client
	batchSize   int
	maxAttempts int
}

func NewNotifier(db *gorm.DB, pushGatewayURL, pushGatewayAPIKey string, timeout time.Duration, batchSize, maxAttempts int) *Notifier {
	client := resty.New().
		SetBaseURL(pushGatewayURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+pushGatewayAPIKey).
		SetHeader("Content-Type", "application/json")

	return &Notifier{db: db, client: client, batchSize: batchSize, maxAttempts: maxAttempts}
}

// pushPayload is the push-gateway wire shape.
type pushPayload struct {
	Title    string                 `json:"title"`
	Body     string                 `json:"body"`
	Link     string                 `json:"link,omitempty"`
	Priority int                    `json:"priority"`
	Tags     []string               `json:"tags"`
	Extras   map[string]interface{} `json:"extras"`
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

// RunResult summarizes one claim/deliver cycle.
type RunResult struct {
	Claimed   int
	Delivered int
	Failed    int
}

// RunOnce claims up to batchSize drafts and attempts delivery for each.
// Safe to call from multiple concurrent notifier workers: the claim
// transaction below guarantees no two workers claim the same draft.
func (n *Notifier) RunOnce(ctx context.Context) (RunResult, error) {
	drafts, err := n.claim(ctx)
	if err != nil {
		return RunResult{}, err
	}

	result := RunResult{Claimed: len(drafts)}
	for _, d := range drafts {
		if err := n.deliver(ctx, d); err != nil {
			result.Failed++
			log.Printf("[NOTIFY] delivery failed draft=%d: %v", d.ID, err)
			continue
		}
		result.Delivered++
	}
	return result, nil
}

// claim selects, in a single transaction, up to K eligible drafts ordered
// by creation time ascending with SKIP LOCKED, then atomically increments
// attempts on each
// before returning. Incrementing attempts inside the same transaction
// that acquired the lock means every claim costs one attempt even if the
// delivery step afterward crashes.
func (n *Notifier) claim(ctx context.Context) ([]models.RecommendationDraft, error) {
	var claimed []models.RecommendationDraft

	err := n.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimLock(tx).
			Where("approved = ? AND notified_at IS NULL AND attempts < ?", true, n.maxAttempts).
			Order("created_at ASC").
			Limit(n.batchSize).
			Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}
		ids := make([]uint64, len(claimed))
		for i, d := range claimed {
			ids[i] = d.ID
			claimed[i].Attempts++
		}
		return tx.Model(&models.RecommendationDraft{}).
			Where("id IN ?", ids).
			Update("attempts", gorm.Expr("attempts + 1")).Error
	})
	if err != nil {
		return nil, evaerr.New("notify.claim", evaerr.StoreTransient, err)
	}
	return claimed, nil
}

// deliver POSTs the draft to the push gateway and records the outcome.
// On 2xx it sets notified_at only if approved still holds at update time,
// so an approval revoked between claim and delivery is never marked
// notified.
func (n *Notifier) deliver(ctx context.Context, d models.RecommendationDraft) error {
	deliveryID := uuid.NewSHA1(deliveryNamespace, []byte(fmt.Sprintf("draft-%d", d.ID))).String()

	payload := pushPayload{
		Title:    fmt.Sprintf("EVA-Finance: %s (%s)", d.Brand, d.Tag),
		Body:     fmt.Sprintf("%s (%s) — confidence %.2f, band %s", d.Brand, d.Tag, d.FinalConfidence, d.Band),
		Priority: 3,
		Tags:     []string{"chart_increasing", "moneybag"},
		Extras: map[string]interface{}{
			"draft_id":        d.ID,
			"delivery_id":     deliveryID,
			"signal_event_id": d.SignalEventID,
			"brand":           d.Brand,
			"tag":             d.Tag,
			"confidence":      d.FinalConfidence,
		},
	}

	resp, err := n.client.R().SetContext(ctx).SetBody(payload).Post("/push")
	if err != nil {
		return n.failDelivery(d.ID, normalizeError(err))
	}
	if resp.IsError() {
		return n.failDelivery(d.ID, fmt.Sprintf("push gateway status %d", resp.StatusCode()))
	}

	now := time.Now()
	res := n.db.WithContext(ctx).Model(&models.RecommendationDraft{}).
		Where("id = ? AND approved = ?", d.ID, true).
		Updates(map[string]interface{}{"notified_at": now, "last_error": ""})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		log.Printf("[NOTIFY] draft=%d approval revoked after claim; delivered but not marked notified", d.ID)
	}
	return nil
}

// failDelivery writes the normalized error to the draft and surfaces the
// delivery as failed. The store write error wins if both go wrong.
func (n *Notifier) failDelivery(draftID uint64, normalizedErr string) error {
	err := n.db.Model(&models.RecommendationDraft{}).
		Where("id = ?", draftID).
		Update("last_error", normalizedErr).Error
	if err != nil {
		return err
	}
	return fmt.Errorf("notify: %s", normalizedErr)
}

func normalizeError(err error) string {
	return fmt.Sprintf("transport error: %v", err)
}

// Run is the notifier's long-lived poll loop: claim a batch, deliver, and
// sleep when nothing was claimed, mirroring internal/extract.Worker.Run's
// work-conserving shape.
func Run(ctx context.Context, n *Notifier, idleSleep time.Duration) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[NOTIFY] shutting down")
			return
		default:
		}

		result, err := n.RunOnce(ctx)
		if err != nil {
			log.Printf("[NOTIFY] cycle failed: %v", err)
			time.Sleep(idleSleep)
			continue
		}
		if result.Claimed == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(idleSleep):
			}
			continue
		}
		log.Printf("[NOTIFY] claimed=%d delivered=%d failed=%d", result.Claimed, result.Delivered, result.Failed)
	}
}
