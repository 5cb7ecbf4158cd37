package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/lendauth/domain"
)

// SessionRepositoryImpl implements domain.SessionRepository using GORM
type SessionRepositoryImpl struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) domain.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

// Create implements domain.SessionRepository. A session that claims a code
// is inserted in the same transaction as the claim check, and the unique
// index on otp_id rejects a concurrent second claim.
func (r *SessionRepositoryImpl) Create(ctx context.Context, session *domain.Session) error {
	row := r.domainToDB(session)
	now := time.Now().UTC()
	row.CreatedAt, row.UpdatedAt = now, now
	if row.LastActive.IsZero() {
		row.LastActive = now
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if row.OTPID != nil {
			var claimed int64
			if err := tx.Model(&DBSession{}).Where("otp_id = ?", *row.OTPID).Count(&claimed).Error; err != nil {
				return err
			}
			if claimed > 0 {
				return domain.ErrCodeAlreadyUsed
			}
		}
		return tx.Omit(clause.Associations).Create(row).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrCodeAlreadyUsed) {
			return err
		}
		if isUniqueViolation(err) {
			if row.OTPID != nil {
				return domain.ErrCodeAlreadyUsed
			}
			return fmt.Errorf("session: %w", ErrDuplicate)
		}
		return err
	}

	session.ID = row.ID
	session.LastActive = row.LastActive
	session.CreatedAt = row.CreatedAt
	session.UpdatedAt = row.UpdatedAt
	return nil
}

// FindActiveByToken implements domain.SessionRepository
func (r *SessionRepositoryImpl) FindActiveByToken(ctx context.Context, token string, now time.Time) (*domain.Session, error) {
	var row DBSession
	err := r.db.WithContext(ctx).
		Where("jwt_token = ? AND force_deactivation = ? AND expires_at > ?", token, false, now.UTC()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&row), nil
}

// FindByOTPID implements domain.SessionRepository
func (r *SessionRepositoryImpl) FindByOTPID(ctx context.Context, otpID uint) (*domain.Session, error) {
	var row DBSession
	err := r.db.WithContext(ctx).Where("otp_id = ?", otpID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&row), nil
}

// Touch implements domain.SessionRepository
func (r *SessionRepositoryImpl) Touch(ctx context.Context, sessionID uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&DBSession{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
		"last_active": at.UTC(),
		"updated_at":  time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// DeactivateByToken implements domain.SessionRepository
func (r *SessionRepositoryImpl) DeactivateByToken(ctx context.Context, token string) (int64, error) {
	return r.deactivate(ctx, "jwt_token = ?", token)
}

// DeactivateByUser implements domain.SessionRepository
func (r *SessionRepositoryImpl) DeactivateByUser(ctx context.Context, userID uint) (int64, error) {
	return r.deactivate(ctx, "user_id = ?", userID)
}

func (r *SessionRepositoryImpl) deactivate(ctx context.Context, query string, arg interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Model(&DBSession{}).
		Where(query, arg).
		Where("force_deactivation = ?", false).
		Updates(map[string]interface{}{
			"force_deactivation": true,
			"updated_at":         time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// ListActiveByUser implements domain.SessionRepository
func (r *SessionRepositoryImpl) ListActiveByUser(ctx context.Context, userID uint, now time.Time) ([]*domain.Session, error) {
	var rows []DBSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND force_deactivation = ? AND expires_at > ?", userID, false, now.UTC()).
		Order("last_active DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	sessions := make([]*domain.Session, 0, len(rows))
	for i := range rows {
		sessions = append(sessions, r.dbToDomain(&rows[i]))
	}
	return sessions, nil
}

// domainToDB converts domain session to database session
func (r *SessionRepositoryImpl) domainToDB(s *domain.Session) *DBSession {
	return &DBSession{
		ID:                s.ID,
		UserID:            s.UserID,
		JWTToken:          s.JWTToken,
		OTPID:             s.OTPID,
		ExpiresAt:         s.ExpiresAt.UTC(),
		ForceDeactivation: s.ForceDeactivation,
		LastActive:        s.LastActive.UTC(),
		UserAgent:         s.UserAgent,
		IPAddress:         s.IPAddress,
		DeviceInfo:        s.DeviceInfo,
	}
}

// dbToDomain converts database session to domain session
func (r *SessionRepositoryImpl) dbToDomain(row *DBSession) *domain.Session {
	return &domain.Session{
		ID:                row.ID,
		UserID:            row.UserID,
		JWTToken:          row.JWTToken,
		OTPID:             row.OTPID,
		ExpiresAt:         row.ExpiresAt,
		ForceDeactivation: row.ForceDeactivation,
		LastActive:        row.LastActive,
		UserAgent:         row.UserAgent,
		IPAddress:         row.IPAddress,
		DeviceInfo:        row.DeviceInfo,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}
