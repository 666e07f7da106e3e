package user

import (
	"time"

	"github.com/clubworks/core/internal/models"
)

type RegisterDTO struct {
	Username string   `json:"username" binding:"required,min=3,max=32"`
	Password string   `json:"password" binding:"required,min=8"`
	Name     string   `json:"name"     binding:"required"`
	Mail     string   `json:"mail"`
	Skills   []string `json:"skills"`
}

type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileDTO struct {
	Name      *string  `json:"name"`
	Introduce *string  `json:"introduce"`
	Avatar    *string  `json:"avatar"`
	Mail      *string  `json:"mail"`
	URL       *string  `json:"url"`
	Skills    []string `json:"skills"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type profileResponse struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	Introduce     string     `json:"introduce"`
	Avatar        string     `json:"avatar"`
	Mail          string     `json:"mail"`
	URL           string     `json:"url"`
	Skills        []string   `json:"skills"`
	IsActive      bool       `json:"is_active"`
	LastLoginTime *time.Time `json:"last_login_time,omitempty"`
	Created       time.Time  `json:"created"`
}

func toProfile(u *models.UserModel) profileResponse {
	skills := []string(u.Skills)
	if skills == nil {
		skills = []string{}
	}
	return profileResponse{
		ID:            u.ID,
		Username:      u.Username,
		Name:          u.Name,
		Role:          u.Role,
		Introduce:     u.Introduce,
		Avatar:        u.Avatar,
		Mail:          u.Mail,
		URL:           u.URL,
		Skills:        skills,
		IsActive:      u.IsActive,
		LastLoginTime: u.LastLoginTime,
		Created:       u.CreatedAt,
	}
}

type sessionResponse struct {
	ID       string    `json:"id"`
	IP       string    `json:"ip"`
	UA       string    `json:"ua"`
	Current  bool      `json:"current"`
	Expires  time.Time `json:"expires"`
	LastSeen time.Time `json:"last_seen"`
}
