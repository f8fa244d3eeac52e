package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
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

func seedDraft(t *testing.T, db *gorm.DB, eventID uint64, approved bool, attempts int, notified bool) models.RecommendationDraft {
	t.Helper()
	draft := models.RecommendationDraft{
		SignalEventID:  eventID,
		Brand:          "Hoka",
		Tag:            "running",
		EventTime:      time.Now(),
		Band:           models.BandHigh,
		BundlePath:     "bundles/x.json.gz",
		BundleSHA256:   "abc",
		MarkdownPath:   "drafts/x.md",
		MarkdownSHA256: "def",
		Approved:       approved,
		Attempts:       attempts,
	}
	if notified {
		now := time.Now()
		draft.NotifiedAt = &now
	}
	require.NoError(t, db.Create(&draft).Error)
	return draft
}

func TestClaim_OnlyApprovedUnnotifiedUnderCap(t *testing.T) {
	db := testDB(t)
	n := NewNotifier(db, "http://unused", "", time.Second, 10, 5)

	seedDraft(t, db, 1, true, 0, false)  // claimable
	seedDraft(t, db, 2, false, 0, false) // unapproved
	seedDraft(t, db, 3, true, 5, false)  // poisoned
	seedDraft(t, db, 4, true, 0, true)   // already notified

	claimed, err := n.claim(context.Background())
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, uint64(1), claimed[0].SignalEventID)
}

func TestClaim_IncrementsAttemptsEvenIfDeliveryNeverRuns(t *testing.T) {
	db := testDB(t)
	n := NewNotifier(db, "http://unused", "", time.Second, 10, 5)
	draft := seedDraft(t, db, 1, true, 0, false)

	claimed, err := n.claim(context.Background())
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, 1, claimed[0].Attempts)

	var stored models.RecommendationDraft
	require.NoError(t, db.First(&stored, draft.ID).Error)
	assert.Equal(t, 1, stored.Attempts)
}

func TestClaim_PoisonedDraftStaysUnclaimed(t *testing.T) {
	db := testDB(t)
	n := NewNotifier(db, "http://unused", "", time.Second, 10, 5)
	seedDraft(t, db, 1, true, 4, false)

	// The fifth claim consumes the last attempt; a sixth returns nothing.
	claimed, err := n.claim(context.Background())
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, 5, claimed[0].Attempts)

	claimed, err = n.claim(context.Background())
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestDeliver_SuccessMarksNotified(t *testing.T) {
	db := testDB(t)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	n := NewNotifier(db, gateway.URL, "", time.Second, 10, 5)
	draft := seedDraft(t, db, 1, true, 0, false)

	require.NoError(t, n.deliver(context.Background(), draft))

	var stored models.RecommendationDraft
	require.NoError(t, db.First(&stored, draft.ID).Error)
	assert.NotNil(t, stored.NotifiedAt)
	assert.Empty(t, stored.LastError)
}

func TestDeliver_GatewayErrorRecordsLastError(t *testing.T) {
	db := testDB(t)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer gateway.Close()

	n := NewNotifier(db, gateway.URL, "", time.Second, 10, 5)
	draft := seedDraft(t, db, 1, true, 0, false)

	require.Error(t, n.deliver(context.Background(), draft))

	var stored models.RecommendationDraft
	require.NoError(t, db.First(&stored, draft.ID).Error)
	assert.Nil(t, stored.NotifiedAt)
	assert.Contains(t, stored.LastError, "502")
}

func TestDeliver_RevokedApprovalIsNotMarkedNotified(t *testing.T) {
	db := testDB(t)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	n := NewNotifier(db, gateway.URL, "", time.Second, 10, 5)
	draft := seedDraft(t, db, 1, true, 0, false)

	// Approval revoked between claim and delivery.
	require.NoError(t, db.Model(&models.RecommendationDraft{}).
		Where("id = ?", draft.ID).Update("approved", false).Error)

	require.NoError(t, n.deliver(context.Background(), draft))

	var stored models.RecommendationDraft
	require.NoError(t, db.First(&stored, draft.ID).Error)
	assert.Nil(t, stored.NotifiedAt)
}

func TestRunOnce_ClaimsOldestFirst(t *testing.T) {
	db := testDB(t)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	n := NewNotifier(db, gateway.URL, "", time.Second, 1, 5)
	first := seedDraft(t, db, 1, true, 0, false)
	require.NoError(t, db.Model(&models.RecommendationDraft{}).
		Where("id = ?", first.ID).Update("created_at", time.Now().Add(-time.Hour)).Error)
	seedDraft(t, db, 2, true, 0, false)

	result, err := n.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Claimed)
	assert.Equal(t, 1, result.Delivered)

	var stored models.RecommendationDraft
	require.NoError(t, db.First(&stored, first.ID).Error)
	assert.NotNil(t, stored.NotifiedAt)
}
