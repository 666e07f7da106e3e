package member

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/clubworks/core/internal/models"
	"github.com/clubworks/core/internal/pkg/markdown"
	"github.com/clubworks/core/internal/pkg/pagination"
	"github.com/clubworks/core/internal/pkg/response"
)

var ErrMemberNotFound = errors.New("member not found")

// Service exposes the public member directory. Contact and login details
// never leave this layer.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListQuery narrows the directory listing.
type ListQuery struct {
	Skill  string `form:"skill"`
	Search string `form:"search"`
}

type memberCard struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Avatar   string   `json:"avatar"`
	URL      string   `json:"url"`
	Role     string   `json:"role"`
	Skills   []string `json:"skills"`
}

type memberDetail struct {
	memberCard
	Introduce     string `json:"introduce"`
	IntroduceHTML string `json:"introduce_html"`
}

func toCard(u *models.UserModel) memberCard {
	skills := []string(u.Skills)
	if skills == nil {
		skills = []string{}
	}
	return memberCard{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Avatar:   u.Avatar,
		URL:      u.URL,
		Role:     u.Role,
		Skills:   skills,
	}
}

// List returns active members. Skill filtering matches against the serialized
// skills array, which is good enough for a club-sized directory.
func (s *Service) List(ctx context.Context, q ListQuery, p pagination.Query) ([]memberCard, response.Pagination, error) {
	tx := s.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("is_active = ?", true)

	if skill := strings.TrimSpace(q.Skill); skill != "" {
		tx = tx.Where("skills LIKE ?", "%\""+skill+"\"%")
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + search + "%"
		tx = tx.Where("name LIKE ? OR username LIKE ?", like, like)
	}
	tx = tx.Order("created_at ASC")

	var users []models.UserModel
	meta, err := pagination.Paginate[models.UserModel](tx, p, &users)
	if err != nil {
		return nil, response.Pagination{}, err
	}

	out := make([]memberCard, len(users))
	for i := range users {
		out[i] = toCard(&users[i])
	}
	return out, meta, nil
}

// Get resolves one active member by id or username, with the bio rendered
// to HTML.
func (s *Service) Get(ctx context.Context, idOrUsername string) (*memberDetail, error) {
	var u models.UserModel
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("id = ? OR username = ?", idOrUsername, strings.ToLower(idOrUsername)).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}

	detail := memberDetail{memberCard: toCard(&u), Introduce: u.Introduce}
	detail.IntroduceHTML = markdown.Render(u.Introduce)
	return &detail, nil
}
