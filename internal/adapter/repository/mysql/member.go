package mysql

import (
	"context"
	"time"

	memberDomain "coop-ledger/internal/domain/member"

	"gorm.io/gorm"
)

type MemberRepository struct{ db *gorm.DB }

func NewMemberRepository(db *gorm.DB) *MemberRepository { return &MemberRepository{db: db} }

func (r *MemberRepository) Create(ctx context.Context, m *memberDomain.Member) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MemberRepository) GetByMemberID(ctx context.Context, memberID string) (*memberDomain.Member, error) {
	var out memberDomain.Member
	res := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&out)
	return &out, res.Error
}

func (r *MemberRepository) Save(ctx context.Context, m *memberDomain.Member) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *MemberRepository) TouchActivity(ctx context.Context, memberID string, day time.Time) error {
	return r.db.WithContext(ctx).
		Model(&memberDomain.Member{}).
		Where("member_id = ?", memberID).
		Updates(map[string]any{"last_activity_date": day, "inactivity_days": 0}).Error
}

func (r *MemberRepository) ListScannable(ctx context.Context) ([]memberDomain.Member, error) {
	var out []memberDomain.Member
	res := r.db.WithContext(ctx).
		Where("status IN ? AND last_activity_date IS NOT NULL",
			[]memberDomain.Status{memberDomain.StatusActive, memberDomain.StatusInactive}).
		Order("id").
		Find(&out)
	return out, res.Error
}

func (r *MemberRepository) CreateStatusAudit(ctx context.Context, a *memberDomain.StatusAudit) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *MemberRepository) ListStatusAudits(ctx context.Context, memberNumericID uint64) ([]memberDomain.StatusAudit, error) {
	var out []memberDomain.StatusAudit
	res := r.db.WithContext(ctx).Where("member_id = ?", memberNumericID).Order("id").Find(&out)
	return out, res.Error
}
