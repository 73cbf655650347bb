package deliveries

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ziadkadry99/dmrelay/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestRecordAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	received := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	d := Delivery{
		ID:         "d-1",
		ReceivedAt: received,
		SenderID:   "42",
		Language:   "fr",
		Stage:      StageDone,
		Status:     StatusSuccess,
		DurationMS: 812,
	}
	if err := store.Record(ctx, d); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.Get(ctx, "d-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SenderID != "42" || got.Language != "fr" {
		t.Errorf("got %+v", got)
	}
	if got.Status != StatusSuccess || got.Stage != StageDone {
		t.Errorf("status/stage = %q/%q", got.Status, got.Stage)
	}
	if !got.ReceivedAt.Equal(received) {
		t.Errorf("ReceivedAt = %v, want %v", got.ReceivedAt, received)
	}
	if got.DurationMS != 812 {
		t.Errorf("DurationMS = %d", got.DurationMS)
	}
}

func TestRecordGeneratesUUID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, Delivery{Stage: StageParse, Status: StatusError, Error: "malformed_payload"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	list, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(list))
	}
	if _, err := uuid.Parse(list[0].ID); err != nil {
		t.Errorf("expected generated UUID, got %q: %v", list[0].ID, err)
	}
	if list[0].ReceivedAt.IsZero() {
		t.Error("expected ReceivedAt to be filled in")
	}
}

func TestGetNotFound(t *testing.T) {
	store := setupStore(t)
	if _, err := store.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersAndOrder(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	seed := []Delivery{
		{SenderID: "a", Status: StatusSuccess, Stage: StageDone, ReceivedAt: base},
		{SenderID: "b", Status: StatusError, Stage: StageGenerate, ReceivedAt: base.Add(time.Minute)},
		{SenderID: "a", Status: StatusError, Stage: StageSend, ReceivedAt: base.Add(2 * time.Minute)},
		{SenderID: "a", Status: StatusSkipped, Stage: StageParse, ReceivedAt: base.Add(3 * time.Minute)},
	}
	for _, d := range seed {
		if err := store.Record(ctx, d); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4, got %d", len(all))
	}
	if all[0].Status != StatusSkipped || all[3].Status != StatusSuccess {
		t.Errorf("expected newest first, got %q ... %q", all[0].Status, all[3].Status)
	}

	bySender, _ := store.List(ctx, Filter{SenderID: "a"})
	if len(bySender) != 3 {
		t.Errorf("sender filter: expected 3, got %d", len(bySender))
	}

	errs, _ := store.List(ctx, Filter{Status: StatusError})
	if len(errs) != 2 {
		t.Errorf("status filter: expected 2, got %d", len(errs))
	}

	since := base.Add(90 * time.Second)
	recent, _ := store.List(ctx, Filter{Since: &since})
	if len(recent) != 2 {
		t.Errorf("since filter: expected 2, got %d", len(recent))
	}

	limited, _ := store.List(ctx, Filter{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("limit: expected 1, got %d", len(limited))
	}
}

func TestStats(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, s := range []Status{StatusSuccess, StatusSuccess, StatusError} {
		if err := store.Record(ctx, Delivery{Stage: StageDone, Status: s}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[StatusSuccess] != 2 || stats[StatusError] != 1 || stats[StatusSkipped] != 0 {
		t.Errorf("stats = %v", stats)
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now()

	old := Delivery{ID: "old", Stage: StageDone, Status: StatusSuccess, ReceivedAt: now.AddDate(0, 0, -40)}
	fresh := Delivery{ID: "fresh", Stage: StageDone, Status: StatusSuccess, ReceivedAt: now}
	for _, d := range []Delivery{old, fresh} {
		if err := store.Record(ctx, d); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	n, err := store.DeleteBefore(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d rows, want 1", n)
	}
	if _, err := store.Get(ctx, "old"); err != ErrNotFound {
		t.Errorf("old delivery should be gone, got %v", err)
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh delivery should remain: %v", err)
	}
}

// --- HTTP handler tests ---

func setupRouter(t *testing.T) (chi.Router, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r, store
}

func TestHTTPGet(t *testing.T) {
	r, store := setupRouter(t)
	if err := store.Record(context.Background(), Delivery{ID: "http-1", SenderID: "42", Stage: StageDone, Status: StatusSuccess}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/deliveries/http-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got Delivery
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "http-1" || got.SenderID != "42" {
		t.Errorf("got %+v", got)
	}
}

func TestHTTPGetNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/deliveries/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHTTPListEmptyIsArray(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/deliveries", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var list []Delivery
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty array, got %v", list)
	}
}

func TestHTTPListWithFilter(t *testing.T) {
	r, store := setupRouter(t)
	ctx := context.Background()

	for _, sender := range []string{"alice", "bob", "alice"} {
		if err := store.Record(ctx, Delivery{SenderID: sender, Stage: StageDone, Status: StatusSuccess}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/deliveries?sender=alice&status=success&limit=10", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var list []Delivery
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 deliveries for alice, got %d", len(list))
	}
}

func TestHTTPStats(t *testing.T) {
	r, store := setupRouter(t)
	if err := store.Record(context.Background(), Delivery{Stage: StageGenerate, Status: StatusError}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/deliveries/stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var stats map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats["error"] != 1 || stats["success"] != 0 {
		t.Errorf("stats = %v", stats)
	}
}
