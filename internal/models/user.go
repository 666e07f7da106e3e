package models

import "time"

// User roles. Admins may manage any content; members own theirs.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// UserModel represents a club member.
type UserModel struct {
	Base
	Username      string      `json:"username"        gorm:"uniqueIndex;not null"`
	Name          string      `json:"name"`
	Role          string      `json:"role"            gorm:"default:member;index"`
	Introduce     string      `json:"introduce"       gorm:"type:text"` // markdown bio
	Avatar        string      `json:"avatar"`
	Password      string      `json:"-"               gorm:"not null"`
	Mail          string      `json:"mail"`
	URL           string      `json:"url"`
	SocialIDs     string      `json:"-"               gorm:"type:longtext"`
	Skills        StringArray `json:"skills"          gorm:"type:longtext"`
	IsActive      bool        `json:"is_active"       gorm:"default:true;index"`
	LastLoginTime *time.Time  `json:"last_login_time"`
	LastLoginIP   string      `json:"last_login_ip"`
}

func (UserModel) TableName() string { return "users" }

// IsAdmin reports whether the user holds the admin role.
func (u *UserModel) IsAdmin() bool { return u.Role == RoleAdmin }
