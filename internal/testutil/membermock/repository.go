package membermock

import (
	"context"
	"time"

	domain "coop-ledger/internal/domain/member"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn            func(ctx context.Context, m *domain.Member) error
	GetByMemberIDFn     func(ctx context.Context, memberID string) (*domain.Member, error)
	SaveFn              func(ctx context.Context, m *domain.Member) error
	TouchActivityFn     func(ctx context.Context, memberID string, day time.Time) error
	ListScannableFn     func(ctx context.Context) ([]domain.Member, error)
	CreateStatusAuditFn func(ctx context.Context, a *domain.StatusAudit) error
	ListStatusAuditsFn  func(ctx context.Context, memberNumericID uint64) ([]domain.StatusAudit, error)
}

func (m *Repo) Create(ctx context.Context, mem *domain.Member) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, mem)
	}
	return nil
}

func (m *Repo) GetByMemberID(ctx context.Context, memberID string) (*domain.Member, error) {
	if m.GetByMemberIDFn != nil {
		return m.GetByMemberIDFn(ctx, memberID)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, mem *domain.Member) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, mem)
	}
	return nil
}

func (m *Repo) TouchActivity(ctx context.Context, memberID string, day time.Time) error {
	if m.TouchActivityFn != nil {
		return m.TouchActivityFn(ctx, memberID, day)
	}
	return nil
}

func (m *Repo) ListScannable(ctx context.Context) ([]domain.Member, error) {
	if m.ListScannableFn != nil {
		return m.ListScannableFn(ctx)
	}
	return nil, nil
}

func (m *Repo) CreateStatusAudit(ctx context.Context, a *domain.StatusAudit) error {
	if m.CreateStatusAuditFn != nil {
		return m.CreateStatusAuditFn(ctx, a)
	}
	return nil
}

func (m *Repo) ListStatusAudits(ctx context.Context, memberNumericID uint64) ([]domain.StatusAudit, error) {
	if m.ListStatusAuditsFn != nil {
		return m.ListStatusAuditsFn(ctx, memberNumericID)
	}
	return nil, nil
}
