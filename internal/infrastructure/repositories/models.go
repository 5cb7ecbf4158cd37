package repositories

import (
	"time"
)

// DBUser represents the database model for User (with GORM tags)
type DBUser struct {
	ID        uint    `gorm:"primaryKey"`
	Email     *string `gorm:"uniqueIndex;size:255"`
	Phone     *string `gorm:"uniqueIndex;size:32"`
	FirstName *string `gorm:"size:128"`
	LastName  *string `gorm:"size:128"`
	IsAgent   bool    `gorm:"not null;default:false"`
	IsAdmin   bool    `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// DBOneTimeCode is a persisted email code. It is never deleted: it either
// expires or becomes referenced by a session.
type DBOneTimeCode struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"not null;index:idx_otp_lookup,priority:1"`
	Method     string    `gorm:"not null;size:16;index:idx_otp_lookup,priority:2"`
	Identifier string    `gorm:"not null;size:255;index:idx_otp_lookup,priority:3"`
	Code       string    `gorm:"not null;size:16"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"index"`
	User       DBUser    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (DBOneTimeCode) TableName() string {
	return "one_time_codes"
}

// DBSession is a session row. The unique index on otp_id is what makes a
// code single-use under concurrent verification.
type DBSession struct {
	ID                uint              `gorm:"primaryKey"`
	UserID            uint              `gorm:"not null;index"`
	JWTToken          string            `gorm:"column:jwt_token;not null;uniqueIndex;size:1024"`
	OTPID             *uint             `gorm:"column:otp_id;uniqueIndex"`
	ExpiresAt         time.Time         `gorm:"not null;index"`
	ForceDeactivation bool              `gorm:"not null;default:false;index"`
	LastActive        time.Time         `gorm:"not null"`
	UserAgent         string            `gorm:"size:512"`
	IPAddress         string            `gorm:"size:64"`
	DeviceInfo        map[string]string `gorm:"serializer:json;type:text"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	User              DBUser            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	OTP               *DBOneTimeCode    `gorm:"foreignKey:OTPID;constraint:OnDelete:SET NULL"`
}

func (DBSession) TableName() string {
	return "sessions"
}

// Models lists every table the credential store migrates
func Models() []interface{} {
	return []interface{}{&DBUser{}, &DBOneTimeCode{}, &DBSession{}}
}
