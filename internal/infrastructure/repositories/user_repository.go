package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/lendauth/domain"
)

// ErrDuplicate is returned when a unique constraint rejects a write
var ErrDuplicate = errors.New("duplicate record")

// UserRepositoryImpl implements domain.UserRepository using GORM
type UserRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create implements domain.UserRepository
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	dbUser := r.domainToDB(user)
	now := time.Now().UTC()
	dbUser.CreatedAt, dbUser.UpdatedAt = now, now

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(dbUser).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return err
	}
	user.ID = dbUser.ID
	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// FindByIdentifier implements domain.UserRepository
func (r *UserRepositoryImpl) FindByIdentifier(ctx context.Context, method domain.Method, identifier string) (*domain.User, error) {
	var column string
	switch method {
	case domain.MethodEmail:
		column = "email"
	case domain.MethodPhone:
		column = "phone"
	default:
		return nil, domain.ErrInvalidMethod
	}

	var dbUser DBUser
	err := r.db.WithContext(ctx).Where(column+" = ?", identifier).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// FindByID implements domain.UserRepository
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// UpdateNames implements domain.UserRepository
func (r *UserRepositoryImpl) UpdateNames(ctx context.Context, id uint, firstName, lastName string) error {
	res := r.db.WithContext(ctx).Model(&DBUser{}).Where("id = ?", id).Updates(map[string]interface{}{
		"first_name": firstName,
		"last_name":  lastName,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// domainToDB converts domain user to database user
func (r *UserRepositoryImpl) domainToDB(user *domain.User) *DBUser {
	return &DBUser{
		ID:        user.ID,
		Email:     user.Email,
		Phone:     user.Phone,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsAgent:   user.IsAgent,
		IsAdmin:   user.IsAdmin,
	}
}

// dbToDomain converts database user to domain user
func (r *UserRepositoryImpl) dbToDomain(dbUser *DBUser) *domain.User {
	return &domain.User{
		ID:        dbUser.ID,
		Email:     dbUser.Email,
		Phone:     dbUser.Phone,
		FirstName: dbUser.FirstName,
		LastName:  dbUser.LastName,
		IsAgent:   dbUser.IsAgent,
		IsAdmin:   dbUser.IsAdmin,
		CreatedAt: dbUser.CreatedAt,
		UpdatedAt: dbUser.UpdatedAt,
	}
}

// isUniqueViolation recognises unique-constraint failures from drivers that
// do not translate them into gorm.ErrDuplicatedKey
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
