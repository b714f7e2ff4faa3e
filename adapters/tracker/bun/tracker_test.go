package trackerbun

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-pdfgen/pdfgen"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func TestTracker_StartStatusList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tracker := NewTracker(db)

	recordID, err := tracker.Start(ctx, pdfgen.GenerationRecord{
		Name:  "invoice",
		State: pdfgen.StateQueued,
		RequestedBy: pdfgen.Actor{
			ID:    "user-1",
			Roles: []string{"admin"},
			Scope: pdfgen.Scope{TenantID: "t1", WorkspaceID: "w1"},
		},
		Scope: pdfgen.Scope{TenantID: "t1", WorkspaceID: "w1"},
		Tags:  []string{"billing"},
		Artifact: pdfgen.ArtifactRef{
			Key: "pdf-1/invoice.pdf",
			Meta: pdfgen.ArtifactMeta{
				Filename:    "invoice.pdf",
				ContentType: "application/pdf",
			},
		},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if recordID == "" {
		t.Fatalf("expected record id")
	}

	got, err := tracker.Status(ctx, recordID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.Name != "invoice" {
		t.Fatalf("expected name, got %q", got.Name)
	}
	if got.RequestedBy.ID != "user-1" {
		t.Fatalf("expected actor, got %q", got.RequestedBy.ID)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "billing" {
		t.Fatalf("expected tags, got %v", got.Tags)
	}

	list, err := tracker.List(ctx, pdfgen.ProgressFilter{Name: "invoice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 record, got %d", len(list))
	}
}

func TestTracker_StateTransitions(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tracker := NewTracker(db)

	recordID, err := tracker.Start(ctx, pdfgen.GenerationRecord{
		ID:    "pdf-1",
		Name:  "report",
		State: pdfgen.StateQueued,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := tracker.SetState(ctx, recordID, pdfgen.StateRunning, nil); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if err := tracker.Complete(ctx, recordID, map[string]any{
		"bytes":       int64(2048),
		"output_path": "/tmp/report.pdf",
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err := tracker.Status(ctx, recordID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.State != pdfgen.StateCompleted {
		t.Fatalf("expected completed state, got %s", got.State)
	}
	if got.BytesWritten != 2048 {
		t.Fatalf("expected bytes written, got %d", got.BytesWritten)
	}
	if got.OutputPath != "/tmp/report.pdf" {
		t.Fatalf("expected output path, got %q", got.OutputPath)
	}
	if got.StartedAt.IsZero() || got.CompletedAt.IsZero() {
		t.Fatalf("expected timestamps set")
	}
}

func TestTracker_FailRecordsError(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tracker := NewTracker(db)

	recordID, err := tracker.Start(ctx, pdfgen.GenerationRecord{
		ID:    "pdf-2",
		Name:  "report",
		State: pdfgen.StateRunning,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := tracker.Fail(ctx, recordID, errors.New("render blew up"), nil); err != nil {
		t.Fatalf("fail: %v", err)
	}

	got, err := tracker.Status(ctx, recordID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.State != pdfgen.StateFailed {
		t.Fatalf("expected failed state, got %s", got.State)
	}
	if got.Error != "render blew up" {
		t.Fatalf("expected error message, got %q", got.Error)
	}
}

func TestTracker_ArtifactExpiryDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tracker := NewTracker(db)

	recordID, err := tracker.Start(ctx, pdfgen.GenerationRecord{
		ID:    "pdf-3",
		Name:  "statement",
		State: pdfgen.StateQueued,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	expires := time.Now().Add(-time.Hour).UTC()
	if err := tracker.SetArtifact(ctx, recordID, pdfgen.ArtifactRef{
		Key: "pdf-3/statement.pdf",
		Meta: pdfgen.ArtifactMeta{
			Filename:    "statement.pdf",
			ContentType: "application/pdf",
			ExpiresAt:   expires,
		},
	}); err != nil {
		t.Fatalf("set artifact: %v", err)
	}

	got, err := tracker.Status(ctx, recordID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.Artifact.Key != "pdf-3/statement.pdf" {
		t.Fatalf("expected artifact key, got %q", got.Artifact.Key)
	}

	expired, err := tracker.List(ctx, pdfgen.ProgressFilter{ExpiredBefore: time.Now()})
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	if len(expired) != 1 {
		t.Fatalf("expected 1 expired record, got %d", len(expired))
	}

	if err := tracker.Delete(ctx, recordID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := tracker.Status(ctx, recordID); err == nil {
		t.Fatalf("expected not found after delete")
	}
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	if _, err := db.NewCreateTable().Model((*recordModel)(nil)).IfNotExists().Exec(context.Background()); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}
