// workers/event_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"progression-engine/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActivityEventFromSource matches the JSON shape of the account service's
// activity feed.
type ActivityEventFromSource struct {
	ID             string    `json:"id"`
	ExternalUserID string    `json:"external_user_id"`
	MetricType     string    `json:"metric_type"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// GetActivityChangesResponse is the top-level structure of the feed response.
type GetActivityChangesResponse struct {
	Events []ActivityEventFromSource `json:"events"`
}

// EventSyncWorker mirrors external user activity into the local
// activity_events table, which the engine's EventCounter then counts for
// target grading. The engine itself never talks to the account service.
type EventSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/activity"
	serviceToken string
	httpClient   *http.Client
}

func NewEventSyncWorker(db *gorm.DB, sourceBaseURL, endpointPath, serviceToken string) *EventSyncWorker {
	return &EventSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      sourceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *EventSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Activity Event Sync Worker (account-service → activity_events)…")
	go w.run(ctx)
}

func (w *EventSyncWorker) run(ctx context.Context) {
	// Initial sync backfills from the beginning of time.
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial activity sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("❌ Activity sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Activity Event Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent OccurredAt in the local mirror.
func (w *EventSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(occurred_at) FROM activity_events").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches activity changes since the given time and upserts them
// locally. SourceID carries the upstream id, so re-delivered events are
// dropped by the unique index instead of double-counted.
func (w *EventSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid activity source URL '%s': %w", w.baseURL, err)
	}
	endpoint := base.JoinPath(w.endpointPath)
	q := endpoint.Query()
	q.Set("since", sinceStr)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build activity sync request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("activity sync request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("activity source returned %d: %s", resp.StatusCode, string(body))
	}

	var payload GetActivityChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode activity feed: %w", err)
	}
	if len(payload.Events) == 0 {
		return nil
	}

	inserted := 0
	for _, ev := range payload.Events {
		row := models.ActivityEvent{
			ExternalUserID: ev.ExternalUserID,
			MetricType:     models.MetricType(ev.MetricType),
			SourceID:       ev.ID,
			OccurredAt:     ev.OccurredAt.UTC(),
		}
		res := w.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_id"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return fmt.Errorf("failed to upsert activity event %s: %w", ev.ID, res.Error)
		}
		inserted += int(res.RowsAffected)
	}

	log.Printf("[SYNC] 📡 activity events: %d fetched, %d new (since=%s)", len(payload.Events), inserted, sinceStr)
	return nil
}
