package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

const (
	DefaultPhoto   = "default.jpg"
	ResetTokenTTL  = 10 * time.Minute
	resetTokenSize = 32
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID                   bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                 string        `bson:"name" json:"name"`
	Email                string        `bson:"email" json:"email"`
	Photo                string        `bson:"photo,omitempty" json:"photo,omitempty"`
	Role                 Role          `bson:"role" json:"role"`
	PasswordHash         string        `bson:"password,omitempty" json:"-"` // never expose
	PasswordChangedAt    *time.Time    `bson:"passwordChangedAt,omitempty" json:"passwordChangedAt,omitempty"`
	PasswordResetToken   string        `bson:"passwordResetToken,omitempty" json:"-"`
	PasswordResetExpires *time.Time    `bson:"passwordResetExpires,omitempty" json:"-"`
	Active               bool          `bson:"active" json:"-"`
	CreatedAt            time.Time     `bson:"createdAt" json:"createdAt"`
}

// PasswordStamp identifies the current password in tokens: the change time in
// unix milliseconds, or 0 for a password never changed.
func (u *User) PasswordStamp() int64 {
	if u.PasswordChangedAt == nil {
		return 0
	}
	return u.PasswordChangedAt.UnixMilli()
}

// ChangedPasswordSince reports whether the password moved on from the one a
// token was signed against.
func (u *User) ChangedPasswordSince(stamp int64) bool {
	return u.PasswordStamp() != stamp
}

// SetPassword stores a new hash and stamps the change. MongoDB keeps
// milliseconds, so the stamp is truncated to survive a round trip.
func (u *User) SetPassword(hash string, now time.Time) {
	changed := now.UTC().Truncate(time.Millisecond)
	u.PasswordHash = hash
	u.PasswordChangedAt = &changed
	u.ClearPasswordReset()
}

// CreatePasswordResetToken returns the plain secret to mail out. Only its
// hash is kept on the user.
func (u *User) CreatePasswordResetToken(now time.Time) (string, error) {
	buf := make([]byte, resetTokenSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	secret := hex.EncodeToString(buf)

	expires := now.Add(ResetTokenTTL).UTC()
	u.PasswordResetToken = HashResetToken(secret)
	u.PasswordResetExpires = &expires
	return secret, nil
}

func (u *User) ClearPasswordReset() {
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
}

// ResetTokenMatches checks a plain secret against the stored hash and expiry.
func (u *User) ResetTokenMatches(secret string, now time.Time) bool {
	if u.PasswordResetToken == "" || u.PasswordResetExpires == nil {
		return false
	}
	return u.PasswordResetToken == HashResetToken(secret) && now.Before(*u.PasswordResetExpires)
}

func HashResetToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
