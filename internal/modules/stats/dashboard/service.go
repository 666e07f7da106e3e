package dashboard

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/clubworks/core/internal/models"
)

// Service aggregates counters for the admin dashboard. Everything here is
// read-only.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Overview is one snapshot of club activity.
type Overview struct {
	Members      int64            `json:"members"`
	ActiveToday  int64            `json:"active_today"`
	Posts        map[string]int64 `json:"posts"`
	PostsByCat   map[string]int64 `json:"posts_by_category"`
	Blocks       int64            `json:"blocks"`
	Projects     int64            `json:"projects"`
	Certificates int64            `json:"certificates"`
	Images       int64            `json:"images"`
	TopPosts     []TopPost        `json:"top_posts"`
	NewMembers   []NewMember      `json:"new_members"`
}

// TopPost is a read-count leaderboard row.
type TopPost struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Read    int    `json:"read"`
	Upvotes int    `json:"upvotes"`
}

// NewMember is a recent signup row.
type NewMember struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Joined   time.Time `json:"joined"`
}

// Snapshot collects the whole overview in one pass.
func (s *Service) Snapshot(ctx context.Context) (*Overview, error) {
	db := s.db.WithContext(ctx)
	out := &Overview{
		Posts:      map[string]int64{},
		PostsByCat: map[string]int64{},
	}

	if err := db.Model(&models.UserModel{}).Where("is_active = ?", true).Count(&out.Members).Error; err != nil {
		return nil, err
	}

	dayAgo := time.Now().Add(-24 * time.Hour)
	if err := db.Model(&models.UserModel{}).
		Where("is_active = ? AND last_login_time > ?", true, dayAgo).
		Count(&out.ActiveToday).Error; err != nil {
		return nil, err
	}

	for _, status := range []string{models.PostStatusDraft, models.PostStatusPublished, models.PostStatusArchived} {
		var n int64
		if err := db.Model(&models.PostModel{}).Where("status = ?", status).Count(&n).Error; err != nil {
			return nil, err
		}
		out.Posts[status] = n
	}
	for _, cat := range models.PostCategories {
		var n int64
		if err := db.Model(&models.PostModel{}).
			Where("category = ? AND status = ?", cat, models.PostStatusPublished).
			Count(&n).Error; err != nil {
			return nil, err
		}
		out.PostsByCat[cat] = n
	}

	if err := db.Model(&models.PostBlockModel{}).Count(&out.Blocks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ProjectModel{}).Count(&out.Projects).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.CertificateModel{}).
		Where("revoked_at IS NULL").Count(&out.Certificates).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ImageModel{}).Count(&out.Images).Error; err != nil {
		return nil, err
	}

	top, err := s.topPosts(ctx, 5)
	if err != nil {
		return nil, err
	}
	out.TopPosts = top

	recent, err := s.recentMembers(ctx, 5)
	if err != nil {
		return nil, err
	}
	out.NewMembers = recent

	return out, nil
}

func (s *Service) topPosts(ctx context.Context, limit int) ([]TopPost, error) {
	var posts []models.PostModel
	err := s.db.WithContext(ctx).
		Where("status = ?", models.PostStatusPublished).
		Order("read_count DESC, upvote_count DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	out := make([]TopPost, len(posts))
	for i, p := range posts {
		out[i] = TopPost{
			ID:      p.ID,
			Title:   p.Title,
			Slug:    p.Slug,
			Read:    p.ReadCount,
			Upvotes: p.UpvoteCount,
		}
	}
	return out, nil
}

func (s *Service) recentMembers(ctx context.Context, limit int) ([]NewMember, error) {
	var users []models.UserModel
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	out := make([]NewMember, len(users))
	for i, u := range users {
		out[i] = NewMember{
			ID:       u.ID,
			Username: u.Username,
			Name:     u.Name,
			Joined:   u.CreatedAt,
		}
	}
	return out, nil
}
