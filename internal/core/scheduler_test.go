package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JonMunkholm/csvmaps/internal/audit"
	"github.com/JonMunkholm/csvmaps/internal/census"
)

type pruneFailStore struct {
	*audit.MemoryStore
}

func (*pruneFailStore) Prune(context.Context, time.Time) (int64, error) {
	return 0, errors.New("database unavailable")
}

func TestMaintain_PrunesAuditAndCache(t *testing.T) {
	ctx := context.Background()
	store := audit.NewMemoryStore(10)
	_ = store.Record(ctx, audit.Entry{Action: audit.ActionLoad, CreatedAt: time.Now().Add(-48 * time.Hour)})
	_ = store.Record(ctx, audit.Entry{Action: audit.ActionSearch})

	data := census.BroadbandData{Rows: [][]string{{"NAME"}, {"x"}}}
	cache := census.NewCachingSource(census.StaticSource{Data: data}, time.Nanosecond)
	svc := NewService(Options{Audit: store, Census: cache})

	if _, err := svc.Broadband(ctx, census.Location{State: "a", County: "b"}); err != nil {
		t.Fatalf("Broadband: %v", err)
	}
	time.Sleep(time.Millisecond)

	res, err := svc.Maintain(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AuditPruned != 1 {
		t.Errorf("AuditPruned = %d, want 1", res.AuditPruned)
	}
	if res.CachePurged != 1 || cache.Len() != 0 {
		t.Errorf("CachePurged = %d, Len = %d", res.CachePurged, cache.Len())
	}

	left, _ := store.Recent(ctx, 10)
	// The search and the broadband lookup remain.
	if len(left) != 2 {
		t.Errorf("entries left = %d, want 2", len(left))
	}
}

func TestMaintain_ZeroRetentionKeepsAudit(t *testing.T) {
	ctx := context.Background()
	store := audit.NewMemoryStore(10)
	_ = store.Record(ctx, audit.Entry{Action: audit.ActionLoad, CreatedAt: time.Unix(0, 0)})
	svc := NewService(Options{Audit: store})

	res, err := svc.Maintain(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.AuditSkipped {
		t.Error("expected audit pruning to be skipped")
	}
	if left, _ := store.Recent(ctx, 10); len(left) != 1 {
		t.Errorf("entries left = %d, want 1", len(left))
	}
}

func TestMaintain_PruneFailureStillPurgesCache(t *testing.T) {
	ctx := context.Background()
	cache := census.NewCachingSource(census.StaticSource{}, time.Nanosecond)
	_, _ = cache.Broadband(ctx, census.Location{State: "a", County: "b"})
	time.Sleep(time.Millisecond)

	svc := NewService(Options{Audit: &pruneFailStore{audit.NewMemoryStore(1)}, Census: cache})

	res, err := svc.Maintain(ctx, time.Hour)
	if err == nil {
		t.Fatal("expected prune error")
	}
	if res.CachePurged != 1 {
		t.Errorf("CachePurged = %d, want 1", res.CachePurged)
	}
}

func TestStartMaintenance_StopsOnCancel(t *testing.T) {
	svc := NewService(Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.StartMaintenance(ctx, MaintenanceConfig{Interval: time.Millisecond, AuditRetention: time.Hour})
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
