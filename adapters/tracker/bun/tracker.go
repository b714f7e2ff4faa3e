package trackerbun

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-pdfgen/pdfgen"
	"github.com/uptrace/bun"
)

// Tracker stores generation progress in a Bun-backed database.
type Tracker struct {
	DB          *bun.DB
	Now         func() time.Time
	IDGenerator func() string
}

// NewTracker creates a Bun-backed tracker.
func NewTracker(db *bun.DB) *Tracker {
	return &Tracker{DB: db, Now: time.Now, IDGenerator: defaultIDGenerator()}
}

// Start creates a new generation record.
func (t *Tracker) Start(ctx context.Context, record pdfgen.GenerationRecord) (string, error) {
	if t == nil || t.DB == nil {
		return "", pdfgen.NewError(pdfgen.KindNotImpl, "tracker database not configured", nil)
	}
	if record.ID == "" {
		record.ID = t.nextID()
	}
	if record.State == "" {
		record.State = pdfgen.StateQueued
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = t.now()
	}

	model, err := modelFromRecord(record)
	if err != nil {
		return "", err
	}
	_, err = t.DB.NewInsert().Model(&model).Exec(ctx)
	if err != nil {
		return "", err
	}
	return record.ID, nil
}

// SetState updates the generation state.
func (t *Tracker) SetState(ctx context.Context, id string, state pdfgen.GenerationState, meta map[string]any) error {
	_ = meta
	if t == nil || t.DB == nil {
		return pdfgen.NewError(pdfgen.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return pdfgen.NewError(pdfgen.KindValidation, "generation ID is required", nil)
	}

	query := t.DB.NewUpdate().Model((*recordModel)(nil)).
		Set("state = ?", state).
		Where("id = ?", id)
	if state == pdfgen.StateRunning {
		query = query.Set("started_at = COALESCE(started_at, ?)", t.now())
	}
	if state == pdfgen.StateCompleted || state == pdfgen.StateCanceled {
		query = query.Set("completed_at = COALESCE(completed_at, ?)", t.now())
	}

	res, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return pdfgen.NewError(pdfgen.KindNotFound, fmt.Sprintf("generation %q not found", id), nil)
	}
	return nil
}

// Fail marks the generation as failed.
func (t *Tracker) Fail(ctx context.Context, id string, cause error, meta map[string]any) error {
	_ = meta
	if t == nil || t.DB == nil {
		return pdfgen.NewError(pdfgen.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return pdfgen.NewError(pdfgen.KindValidation, "generation ID is required", nil)
	}

	query := t.DB.NewUpdate().Model((*recordModel)(nil)).
		Set("state = ?", pdfgen.StateFailed).
		Set("completed_at = COALESCE(completed_at, ?)", t.now()).
		Where("id = ?", id)
	if cause != nil {
		query = query.Set("error = ?", cause.Error())
	}

	res, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return pdfgen.NewError(pdfgen.KindNotFound, fmt.Sprintf("generation %q not found", id), nil)
	}
	return nil
}

// Complete marks the generation as completed.
func (t *Tracker) Complete(ctx context.Context, id string, meta map[string]any) error {
	if t == nil || t.DB == nil {
		return pdfgen.NewError(pdfgen.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return pdfgen.NewError(pdfgen.KindValidation, "generation ID is required", nil)
	}

	query := t.DB.NewUpdate().Model((*recordModel)(nil)).
		Set("state = ?", pdfgen.StateCompleted).
		Set("completed_at = COALESCE(completed_at, ?)", t.now()).
		Where("id = ?", id)
	if bytes, ok := meta["bytes"].(int64); ok {
		query = query.Set("bytes_written = ?", bytes)
	}
	if outputPath, ok := meta["output_path"].(string); ok && outputPath != "" {
		query = query.Set("output_path = ?", outputPath)
	}

	res, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return pdfgen.NewError(pdfgen.KindNotFound, fmt.Sprintf("generation %q not found", id), nil)
	}
	return nil
}

// Status returns a record by ID.
func (t *Tracker) Status(ctx context.Context, id string) (pdfgen.GenerationRecord, error) {
	if t == nil || t.DB == nil {
		return pdfgen.GenerationRecord{}, pdfgen.NewError(pdfgen.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return pdfgen.GenerationRecord{}, pdfgen.NewError(pdfgen.KindValidation, "generation ID is required", nil)
	}

	model := new(recordModel)
	err := t.DB.NewSelect().Model(model).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pdfgen.GenerationRecord{}, pdfgen.NewError(pdfgen.KindNotFound, fmt.Sprintf("generation %q not found", id), nil)
		}
		return pdfgen.GenerationRecord{}, err
	}
	return model.toRecord()
}

// List returns records matching a filter.
func (t *Tracker) List(ctx context.Context, filter pdfgen.ProgressFilter) ([]pdfgen.GenerationRecord, error) {
	if t == nil || t.DB == nil {
		return nil, pdfgen.NewError(pdfgen.KindNotImpl, "tracker database not configured", nil)
	}

	models := make([]recordModel, 0)
	query := t.DB.NewSelect().Model(&models)
	if filter.Name != "" {
		query = query.Where("name = ?", filter.Name)
	}
	if filter.State != "" {
		query = query.Where("state = ?", filter.State)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where("created_at <= ?", filter.Until)
	}
	if !filter.ExpiredBefore.IsZero() {
		query = query.Where("expires_at IS NOT NULL").
			Where("expires_at <= ?", filter.ExpiredBefore)
	}
	query = query.Order("created_at DESC")

	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	records := make([]pdfgen.GenerationRecord, 0, len(models))
	for _, model := range models {
		record, err := model.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// SetArtifact updates the artifact metadata for a record.
func (t *Tracker) SetArtifact(ctx context.Context, id string, ref pdfgen.ArtifactRef) error {
	if t == nil || t.DB == nil {
		return pdfgen.NewError(pdfgen.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return pdfgen.NewError(pdfgen.KindValidation, "generation ID is required", nil)
	}

	meta, err := json.Marshal(ref.Meta)
	if err != nil {
		return err
	}
	query := t.DB.NewUpdate().Model((*recordModel)(nil)).
		Set("artifact_key = ?", ref.Key).
		Set("artifact_meta = ?", meta).
		Where("id = ?", id)
	if !ref.Meta.ExpiresAt.IsZero() {
		query = query.Set("expires_at = ?", ref.Meta.ExpiresAt)
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return pdfgen.NewError(pdfgen.KindNotFound, fmt.Sprintf("generation %q not found", id), nil)
	}
	return nil
}

// Delete removes a record from the tracker.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	if t == nil || t.DB == nil {
		return pdfgen.NewError(pdfgen.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return pdfgen.NewError(pdfgen.KindValidation, "generation ID is required", nil)
	}

	res, err := t.DB.NewDelete().Model((*recordModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return pdfgen.NewError(pdfgen.KindNotFound, fmt.Sprintf("generation %q not found", id), nil)
	}
	return nil
}

type recordModel struct {
	bun.BaseModel `bun:"table:pdf_generations,alias:pdf_generations"`

	ID                     string    `bun:",pk"`
	Name                   string    `bun:",notnull"`
	State                  string    `bun:",notnull"`
	RequestedByID          string    `bun:"requested_by_id"`
	RequestedByTenantID    string    `bun:"requested_by_tenant_id"`
	RequestedByWorkspaceID string    `bun:"requested_by_workspace_id"`
	RequestedByRoles       []byte    `bun:"requested_by_roles"`
	RequestedByDetails     []byte    `bun:"requested_by_details"`
	ScopeTenantID          string    `bun:"scope_tenant_id"`
	ScopeWorkspaceID       string    `bun:"scope_workspace_id"`
	Tags                   []byte    `bun:"tags"`
	InputBytes             int64     `bun:"input_bytes"`
	BytesWritten           int64     `bun:"bytes_written"`
	ArtifactKey            string    `bun:"artifact_key"`
	ArtifactMeta           []byte    `bun:"artifact_meta"`
	OutputPath             string    `bun:"output_path"`
	Error                  string    `bun:"error"`
	CreatedAt              time.Time `bun:"created_at"`
	StartedAt              time.Time `bun:"started_at,nullzero"`
	CompletedAt            time.Time `bun:"completed_at,nullzero"`
	ExpiresAt              time.Time `bun:"expires_at,nullzero"`
}

func modelFromRecord(record pdfgen.GenerationRecord) (recordModel, error) {
	roles, err := json.Marshal(record.RequestedBy.Roles)
	if err != nil {
		return recordModel{}, err
	}
	details, err := json.Marshal(record.RequestedBy.Details)
	if err != nil {
		return recordModel{}, err
	}
	tags, err := json.Marshal(record.Tags)
	if err != nil {
		return recordModel{}, err
	}
	meta, err := json.Marshal(record.Artifact.Meta)
	if err != nil {
		return recordModel{}, err
	}

	return recordModel{
		ID:                     record.ID,
		Name:                   record.Name,
		State:                  string(record.State),
		RequestedByID:          record.RequestedBy.ID,
		RequestedByTenantID:    record.RequestedBy.Scope.TenantID,
		RequestedByWorkspaceID: record.RequestedBy.Scope.WorkspaceID,
		RequestedByRoles:       roles,
		RequestedByDetails:     details,
		ScopeTenantID:          record.Scope.TenantID,
		ScopeWorkspaceID:       record.Scope.WorkspaceID,
		Tags:                   tags,
		InputBytes:             record.InputBytes,
		BytesWritten:           record.BytesWritten,
		ArtifactKey:            record.Artifact.Key,
		ArtifactMeta:           meta,
		OutputPath:             record.OutputPath,
		Error:                  record.Error,
		CreatedAt:              record.CreatedAt,
		StartedAt:              record.StartedAt,
		CompletedAt:            record.CompletedAt,
		ExpiresAt:              record.ExpiresAt,
	}, nil
}

func (m recordModel) toRecord() (pdfgen.GenerationRecord, error) {
	record := pdfgen.GenerationRecord{
		ID:    m.ID,
		Name:  m.Name,
		State: pdfgen.GenerationState(m.State),
		RequestedBy: pdfgen.Actor{
			ID: m.RequestedByID,
			Scope: pdfgen.Scope{
				TenantID:    m.RequestedByTenantID,
				WorkspaceID: m.RequestedByWorkspaceID,
			},
		},
		Scope: pdfgen.Scope{
			TenantID:    m.ScopeTenantID,
			WorkspaceID: m.ScopeWorkspaceID,
		},
		InputBytes:   m.InputBytes,
		BytesWritten: m.BytesWritten,
		Artifact: pdfgen.ArtifactRef{
			Key: m.ArtifactKey,
		},
		OutputPath:  m.OutputPath,
		Error:       m.Error,
		CreatedAt:   m.CreatedAt,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
		ExpiresAt:   m.ExpiresAt,
	}

	if len(m.RequestedByRoles) > 0 {
		if err := json.Unmarshal(m.RequestedByRoles, &record.RequestedBy.Roles); err != nil {
			return pdfgen.GenerationRecord{}, err
		}
	}
	if len(m.RequestedByDetails) > 0 {
		if err := json.Unmarshal(m.RequestedByDetails, &record.RequestedBy.Details); err != nil {
			return pdfgen.GenerationRecord{}, err
		}
	}
	if len(m.Tags) > 0 {
		if err := json.Unmarshal(m.Tags, &record.Tags); err != nil {
			return pdfgen.GenerationRecord{}, err
		}
	}
	if len(m.ArtifactMeta) > 0 {
		if err := json.Unmarshal(m.ArtifactMeta, &record.Artifact.Meta); err != nil {
			return pdfgen.GenerationRecord{}, err
		}
	}

	return record, nil
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Tracker) nextID() string {
	if t.IDGenerator != nil {
		return t.IDGenerator()
	}
	return defaultIDGenerator()()
}

func defaultIDGenerator() func() string {
	var counter uint64
	return func() string {
		id := atomic.AddUint64(&counter, 1)
		return fmt.Sprintf("pdf-%d", id)
	}
}
