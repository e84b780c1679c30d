package models

import "time"

// UserStatus is the account state stored in the users table.
type UserStatus string

const (
	UserStatusVerified   UserStatus = "verified"
	UserStatusUnverified UserStatus = "unverified"
	UserStatusSuspended  UserStatus = "suspended"
	UserStatusDeleted    UserStatus = "deleted"
)

// MemberSinceLayout renders the membership timestamp used as password salt.
const MemberSinceLayout = "2006-01-02T15:04:05.000Z"

// User represents a member stored in the users table.
type User struct {
	Username      string     `db:"username" json:"username"`
	PasswordHash  string     `db:"password" json:"-"`
	MemberSince   time.Time  `db:"membersince" json:"memberSince"`
	AdmissionYear int        `db:"admission_year" json:"admissionYear"`
	LegalName     string     `db:"legal_name" json:"legalName"`
	Nickname      *string    `db:"nickname" json:"nickname,omitempty"`
	Status        UserStatus `db:"status" json:"status"`
	Admin         bool       `db:"admin" json:"admin"`
}

// Salt returns the per-user salt component derived from the membership time.
func (u *User) Salt() string {
	return u.MemberSince.UTC().Format(MemberSinceLayout)
}

// NewUserRequest is the sign-up payload.
type NewUserRequest struct {
	Username      string  `json:"username" binding:"required" validate:"username"`
	Password      string  `json:"password" binding:"required"`
	AdmissionYear int     `json:"admissionYear" binding:"required" validate:"min=1"`
	LegalName     string  `json:"legalName" binding:"required" validate:"max=255"`
	Nickname      *string `json:"nickname" validate:"omitempty,max=255"`
}

// NewUserResponse is returned after sign-up.
type NewUserResponse struct {
	Username string `json:"username"`
}

// MeResponse describes the caller as seen by its access token.
type MeResponse struct {
	Username string     `json:"username"`
	Status   UserStatus `json:"status"`
	Admin    bool       `json:"admin"`
}

// UserDetailResponse is a member profile. MemberSince, Status and Admin are
// only filled in the full view.
type UserDetailResponse struct {
	Username      string     `json:"username"`
	AdmissionYear int        `json:"admissionYear"`
	LegalName     string     `json:"legalName"`
	Nickname      *string    `json:"nickname,omitempty"`
	MemberSince   *time.Time `json:"memberSince,omitempty"`
	Status        UserStatus `json:"status,omitempty"`
	Admin         *bool      `json:"admin,omitempty"`
}
