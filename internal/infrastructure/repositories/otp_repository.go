package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/lendauth/domain"
)

// OTPRepositoryImpl implements domain.OTPRepository using GORM
type OTPRepositoryImpl struct {
	db *gorm.DB
}

// NewOTPRepository creates a new one-time code repository
func NewOTPRepository(db *gorm.DB) domain.OTPRepository {
	return &OTPRepositoryImpl{db: db}
}

// Create implements domain.OTPRepository
func (r *OTPRepositoryImpl) Create(ctx context.Context, otp *domain.OneTimeCode) error {
	row := &DBOneTimeCode{
		UserID:     otp.UserID,
		Method:     string(otp.Method),
		Identifier: otp.Identifier,
		Code:       otp.Code,
		ExpiresAt:  otp.ExpiresAt.UTC(),
		CreatedAt:  otp.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return err
	}
	otp.ID = row.ID
	otp.CreatedAt = row.CreatedAt
	return nil
}

// FindAvailable implements domain.OTPRepository
func (r *OTPRepositoryImpl) FindAvailable(ctx context.Context, userID uint, method domain.Method, identifier string, now time.Time) (*domain.OneTimeCode, error) {
	var row DBOneTimeCode
	err := r.scope(ctx, userID, method, identifier, now).
		Where("NOT EXISTS (SELECT 1 FROM sessions WHERE sessions.otp_id = one_time_codes.id)").
		First(&row).Error
	return r.result(&row, err)
}

// FindLatestMatching implements domain.OTPRepository
func (r *OTPRepositoryImpl) FindLatestMatching(ctx context.Context, userID uint, method domain.Method, identifier, code string, now time.Time) (*domain.OneTimeCode, error) {
	var row DBOneTimeCode
	err := r.scope(ctx, userID, method, identifier, now).
		Where("code = ?", code).
		First(&row).Error
	return r.result(&row, err)
}

// Expire implements domain.OTPRepository
func (r *OTPRepositoryImpl) Expire(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&DBOneTimeCode{}).Where("id = ?", id).Update("expires_at", at.UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrOTPNotFound
	}
	return nil
}

// scope selects unexpired codes for the triple, newest first
func (r *OTPRepositoryImpl) scope(ctx context.Context, userID uint, method domain.Method, identifier string, now time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&DBOneTimeCode{}).
		Where("user_id = ? AND method = ? AND identifier = ? AND expires_at > ?", userID, string(method), identifier, now.UTC()).
		Order("created_at DESC").
		Order("id DESC")
}

func (r *OTPRepositoryImpl) result(row *DBOneTimeCode, err error) (*domain.OneTimeCode, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOTPNotFound
		}
		return nil, err
	}
	return &domain.OneTimeCode{
		ID:         row.ID,
		UserID:     row.UserID,
		Method:     domain.Method(row.Method),
		Identifier: row.Identifier,
		Code:       row.Code,
		ExpiresAt:  row.ExpiresAt,
		CreatedAt:  row.CreatedAt,
	}, nil
}
