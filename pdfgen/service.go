package pdfgen

import (
	"context"
	"io"
	"time"
)

// Service is the high-level generation API consumed by transports,
// commands, and jobs.
type Service interface {
	Generate(ctx context.Context, actor Actor, req GenerateRequest) (GenerationRecord, error)
	Status(ctx context.Context, actor Actor, id string) (GenerationRecord, error)
	List(ctx context.Context, actor Actor, filter ProgressFilter) ([]GenerationRecord, error)
	Download(ctx context.Context, actor Actor, id string) (io.ReadCloser, ArtifactMeta, error)
	Delete(ctx context.Context, actor Actor, id string) error
	CleanupExpired(ctx context.Context, now time.Time) (int, error)
}

// Manager implements Service over a Runner, tracker and store.
type Manager struct {
	Runner  *Runner
	Tracker ProgressTracker
	Store   ArtifactStore
	Guard   Guard
	Logger  Logger
	Now     func() time.Time
}

// NewManager creates a manager. Tracker and store default to the
// runner's when unset.
func NewManager(runner *Runner) *Manager {
	m := &Manager{Runner: runner, Logger: NopLogger{}, Now: time.Now}
	if runner != nil {
		m.Tracker = runner.Tracker
		m.Store = runner.Store
	}
	return m
}

// Generate runs a generation and returns its final record.
func (m *Manager) Generate(ctx context.Context, actor Actor, req GenerateRequest) (GenerationRecord, error) {
	if m == nil || m.Runner == nil {
		return GenerationRecord{}, AsGoError(NewError(KindInternal, "service runner is not configured", nil))
	}
	if m.Guard != nil {
		if err := m.Guard.AuthorizeGenerate(ctx, actor, req); err != nil {
			return GenerationRecord{}, AsGoError(err)
		}
	}

	result, err := m.Runner.Run(ctx, actor, req)
	if err != nil {
		return GenerationRecord{}, err
	}

	if m.Tracker != nil {
		record, statusErr := m.Tracker.Status(ctx, result.ID)
		if statusErr == nil {
			return record, nil
		}
		m.logger().Errorf("status after generate for %s: %v", result.ID, statusErr)
	}

	now := m.now()
	return GenerationRecord{
		ID:           result.ID,
		Name:         result.Name,
		State:        StateCompleted,
		RequestedBy:  actor,
		Scope:        actor.Scope,
		BytesWritten: result.Bytes,
		Artifact:     result.Artifact,
		OutputPath:   result.Path,
		CreatedAt:    now,
		CompletedAt:  now,
	}, nil
}

// Resume executes a generation against a record previously queued for
// asynchronous execution.
func (m *Manager) Resume(ctx context.Context, actor Actor, id string, req GenerateRequest) (GenerationRecord, error) {
	if m == nil || m.Runner == nil {
		return GenerationRecord{}, AsGoError(NewError(KindInternal, "service runner is not configured", nil))
	}
	if m.Guard != nil {
		if err := m.Guard.AuthorizeGenerate(ctx, actor, req); err != nil {
			return GenerationRecord{}, AsGoError(err)
		}
	}

	result, err := m.Runner.Resume(ctx, actor, id, req)
	if err != nil {
		return GenerationRecord{}, err
	}

	if m.Tracker != nil {
		record, statusErr := m.Tracker.Status(ctx, result.ID)
		if statusErr == nil {
			return record, nil
		}
		m.logger().Errorf("status after resume for %s: %v", result.ID, statusErr)
	}

	now := m.now()
	return GenerationRecord{
		ID:           result.ID,
		Name:         result.Name,
		State:        StateCompleted,
		RequestedBy:  actor,
		Scope:        actor.Scope,
		BytesWritten: result.Bytes,
		Artifact:     result.Artifact,
		OutputPath:   result.Path,
		CreatedAt:    now,
		CompletedAt:  now,
	}, nil
}

// Status returns the record for a generation.
func (m *Manager) Status(ctx context.Context, actor Actor, id string) (GenerationRecord, error) {
	_ = actor
	if m == nil || m.Tracker == nil {
		return GenerationRecord{}, AsGoError(NewError(KindNotImpl, "tracker is not configured", nil))
	}
	if id == "" {
		return GenerationRecord{}, AsGoError(NewError(KindValidation, "generation ID is required", nil))
	}
	record, err := m.Tracker.Status(ctx, id)
	if err != nil {
		return GenerationRecord{}, AsGoError(err)
	}
	return record, nil
}

// List returns records matching a filter.
func (m *Manager) List(ctx context.Context, actor Actor, filter ProgressFilter) ([]GenerationRecord, error) {
	_ = actor
	if m == nil || m.Tracker == nil {
		return nil, AsGoError(NewError(KindNotImpl, "tracker is not configured", nil))
	}
	records, err := m.Tracker.List(ctx, filter)
	if err != nil {
		return nil, AsGoError(err)
	}
	return records, nil
}

// Download opens the stored artifact for a generation.
func (m *Manager) Download(ctx context.Context, actor Actor, id string) (io.ReadCloser, ArtifactMeta, error) {
	if m == nil || m.Store == nil {
		return nil, ArtifactMeta{}, AsGoError(NewError(KindNotImpl, "artifact store is not configured", nil))
	}
	if m.Guard != nil {
		if err := m.Guard.AuthorizeDownload(ctx, actor, id); err != nil {
			return nil, ArtifactMeta{}, AsGoError(err)
		}
	}

	record, err := m.Status(ctx, actor, id)
	if err != nil {
		return nil, ArtifactMeta{}, err
	}
	if record.Artifact.Key == "" {
		return nil, ArtifactMeta{}, AsGoError(NewError(KindNotFound, "generation has no stored artifact", nil))
	}

	rc, meta, err := m.Store.Open(ctx, record.Artifact.Key)
	if err != nil {
		return nil, ArtifactMeta{}, AsGoError(err)
	}
	return rc, meta, nil
}

// Delete removes a generation record and its stored artifact.
func (m *Manager) Delete(ctx context.Context, actor Actor, id string) error {
	record, err := m.Status(ctx, actor, id)
	if err != nil {
		return err
	}

	if m.Store != nil && record.Artifact.Key != "" {
		if err := m.Store.Delete(ctx, record.Artifact.Key); err != nil {
			return AsGoError(err)
		}
	}
	if err := m.Tracker.Delete(ctx, id); err != nil {
		return AsGoError(err)
	}
	return nil
}

// CleanupExpired deletes generations whose retention TTL has lapsed.
// It returns the number of generations removed.
func (m *Manager) CleanupExpired(ctx context.Context, now time.Time) (int, error) {
	if m == nil || m.Tracker == nil {
		return 0, AsGoError(NewError(KindNotImpl, "tracker is not configured", nil))
	}
	if now.IsZero() {
		now = m.now()
	}

	records, err := m.Tracker.List(ctx, ProgressFilter{ExpiredBefore: now})
	if err != nil {
		return 0, AsGoError(err)
	}

	removed := 0
	for _, record := range records {
		if m.Store != nil && record.Artifact.Key != "" {
			if err := m.Store.Delete(ctx, record.Artifact.Key); err != nil {
				m.logger().Errorf("delete artifact %s: %v", record.Artifact.Key, err)
				continue
			}
		}
		if err := m.Tracker.Delete(ctx, record.ID); err != nil {
			m.logger().Errorf("delete record %s: %v", record.ID, err)
			continue
		}
		removed++
	}
	return removed, nil
}

func (m *Manager) logger() Logger {
	if m == nil || m.Logger == nil {
		return NopLogger{}
	}
	return m.Logger
}

func (m *Manager) now() time.Time {
	if m == nil || m.Now == nil {
		return time.Now()
	}
	return m.Now()
}
