package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/clubworks/core/internal/models"
	"github.com/clubworks/core/internal/pkg/session"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUsernameTaken    = errors.New("username already registered")
	ErrBadCredentials   = errors.New("wrong username or password")
	ErrAccountDisabled  = errors.New("account is disabled")
	ErrWrongOldPassword = errors.New("old password does not match")
	ErrUnknownRole      = errors.New("unknown role")
)

// Service owns accounts and login sessions.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Register creates a member account. The very first account becomes the admin.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*models.UserModel, error) {
	username := strings.ToLower(strings.TrimSpace(dto.Username))

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("username = ?", username).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.UserModel{}).Count(&total).Error; err != nil {
		return nil, err
	}
	role := models.RoleMember
	if total == 0 {
		role = models.RoleAdmin
	}

	u := models.UserModel{
		Username: username,
		Name:     dto.Name,
		Mail:     dto.Mail,
		Skills:   dto.Skills,
		Password: string(hash),
		Role:     role,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Login verifies credentials, stamps the login audit fields and issues a
// session-backed token.
func (s *Service) Login(ctx context.Context, dto LoginDTO, ip, ua string) (string, *models.UserModel, error) {
	username := strings.ToLower(strings.TrimSpace(dto.Username))

	var u models.UserModel
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrBadCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.Password)) != nil {
		return "", nil, ErrBadCredentials
	}
	if !u.IsActive {
		return "", nil, ErrAccountDisabled
	}

	token, _, err := session.Issue(s.db.WithContext(ctx), u.ID, ip, ua, session.DefaultTTL)
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	_ = s.db.WithContext(ctx).Model(&u).Updates(map[string]any{
		"last_login_time": &now,
		"last_login_ip":   ip,
	}).Error
	u.LastLoginTime = &now
	u.LastLoginIP = ip

	return token, &u, nil
}

// Logout revokes the session a token was issued against.
func (s *Service) Logout(ctx context.Context, userID, sessionID string) error {
	err := session.Revoke(s.db.WithContext(ctx), userID, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// Get loads one user by id.
func (s *Service) Get(ctx context.Context, userID string) (*models.UserModel, error) {
	var u models.UserModel
	err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile patches the caller's own profile fields.
func (s *Service) UpdateProfile(ctx context.Context, userID string, dto UpdateProfileDTO) (*models.UserModel, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if dto.Name != nil {
		updates["name"] = *dto.Name
	}
	if dto.Introduce != nil {
		updates["introduce"] = *dto.Introduce
	}
	if dto.Avatar != nil {
		updates["avatar"] = *dto.Avatar
	}
	if dto.Mail != nil {
		updates["mail"] = *dto.Mail
	}
	if dto.URL != nil {
		updates["url"] = *dto.URL
	}
	if dto.Skills != nil {
		updates["skills"] = models.StringArray(dto.Skills)
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword swaps the password and revokes every other session so stolen
// tokens die with the old password.
func (s *Service) ChangePassword(ctx context.Context, userID, keepSessionID string, dto ChangePasswordDTO) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.OldPassword)) != nil {
		return ErrWrongOldPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(u).Update("password", string(hash)).Error; err != nil {
		return err
	}

	now := time.Now()
	return s.db.WithContext(ctx).Model(&models.UserSession{}).
		Where("user_id = ? AND id <> ? AND revoked_at IS NULL", userID, keepSessionID).
		Update("revoked_at", &now).Error
}

// Sessions lists the caller's live sessions, most recently seen first.
func (s *Service) Sessions(ctx context.Context, userID string) ([]models.UserSession, error) {
	var out []models.UserSession
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now()).
		Order("updated_at DESC").
		Find(&out).Error
	return out, err
}

// RevokeSession kills one of the caller's sessions by id.
func (s *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	return session.Revoke(s.db.WithContext(ctx), userID, sessionID)
}

// SetRole promotes or demotes an account. Admin only, enforced by routing.
func (s *Service) SetRole(ctx context.Context, userID, role string) (*models.UserModel, error) {
	if role != models.RoleMember && role != models.RoleAdmin {
		return nil, ErrUnknownRole
	}
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(u).Update("role", role).Error; err != nil {
		return nil, err
	}
	u.Role = role
	return u, nil
}

// SetActive enables or disables an account. Admin only, enforced by routing.
func (s *Service) SetActive(ctx context.Context, userID string, active bool) (*models.UserModel, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(u).Update("is_active", active).Error; err != nil {
		return nil, err
	}
	u.IsActive = active
	if !active {
		now := time.Now()
		_ = s.db.WithContext(ctx).Model(&models.UserSession{}).
			Where("user_id = ? AND revoked_at IS NULL", userID).
			Update("revoked_at", &now).Error
	}
	return u, nil
}
