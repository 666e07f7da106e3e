package project

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/clubworks/core/internal/models"
	"github.com/clubworks/core/internal/pkg/pagination"
	"github.com/clubworks/core/internal/pkg/response"
)

// MaxTotalPercent caps the combined contribution shares of one project.
const MaxTotalPercent = 100

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrNameTaken            = errors.New("project name already in use")
	ErrContributorNotFound  = errors.New("contributor is not a member")
	ErrDuplicateContributor = errors.New("member already listed as contributor")
	ErrContributionOverflow = errors.New("contribution percentages exceed 100")
	ErrInvalidPercent       = errors.New("percent must be between 0 and 100")
)

// Service owns the project portfolio and contribution shares.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns projects with contributors preloaded, newest first.
func (s *Service) List(ctx context.Context, p pagination.Query) ([]models.ProjectModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).Model(&models.ProjectModel{}).
		Preload("Contributors").
		Preload("Contributors.User").
		Order("created_at DESC")

	var out []models.ProjectModel
	meta, err := pagination.Paginate[models.ProjectModel](tx, p, &out)
	return out, meta, err
}

// Get loads one project with contributors.
func (s *Service) Get(ctx context.Context, projectID string) (*models.ProjectModel, error) {
	var p models.ProjectModel
	err := s.db.WithContext(ctx).
		Preload("Contributors").
		Preload("Contributors.User").
		First(&p, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a project and its initial contributor list in one transaction.
func (s *Service) Create(ctx context.Context, dto CreateProjectDTO) (*models.ProjectModel, error) {
	name := strings.TrimSpace(dto.Name)
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.ProjectModel{}).
		Where("name = ?", name).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrNameTaken
	}
	if err := s.checkShares(ctx, dto.Contributors); err != nil {
		return nil, err
	}

	p := models.ProjectModel{
		Name:        name,
		PreviewURL:  dto.PreviewURL,
		DocURL:      dto.DocURL,
		RepoURL:     dto.RepoURL,
		Images:      dto.Images,
		Description: dto.Description,
		Avatar:      dto.Avatar,
		Text:        dto.Text,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		for _, c := range dto.Contributors {
			row := models.ProjectContributorModel{
				ProjectID: p.ID,
				UserID:    c.UserID,
				Role:      c.Role,
				Percent:   c.Percent,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, p.ID)
}

// Update patches project metadata. Contributors change through SetContributors.
func (s *Service) Update(ctx context.Context, projectID string, dto UpdateProjectDTO) (*models.ProjectModel, error) {
	p, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.ProjectModel{}).
			Where("name = ? AND id <> ?", name, p.ID).Count(&n).Error; err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, ErrNameTaken
		}
		updates["name"] = name
	}
	if dto.PreviewURL != nil {
		updates["preview_url"] = *dto.PreviewURL
	}
	if dto.DocURL != nil {
		updates["doc_url"] = *dto.DocURL
	}
	if dto.RepoURL != nil {
		updates["repo_url"] = *dto.RepoURL
	}
	if dto.Images != nil {
		updates["images"] = models.StringArray(dto.Images)
	}
	if dto.Description != nil {
		updates["description"] = *dto.Description
	}
	if dto.Avatar != nil {
		updates["avatar"] = *dto.Avatar
	}
	if dto.Text != nil {
		updates["text"] = *dto.Text
	}
	if len(updates) == 0 {
		return p, nil
	}
	if err := s.db.WithContext(ctx).Model(&models.ProjectModel{}).
		Where("id = ?", p.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, p.ID)
}

// SetContributors replaces the whole contributor list atomically. Shares are
// validated as a set so reflows never trip on intermediate sums.
func (s *Service) SetContributors(ctx context.Context, projectID string, contributors []ContributorDTO) (*models.ProjectModel, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}
	if err := s.checkShares(ctx, contributors); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).
			Delete(&models.ProjectContributorModel{}).Error; err != nil {
			return err
		}
		for _, c := range contributors {
			row := models.ProjectContributorModel{
				ProjectID: projectID,
				UserID:    c.UserID,
				Role:      c.Role,
				Percent:   c.Percent,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, projectID)
}

// Delete removes a project and its contributor rows.
func (s *Service) Delete(ctx context.Context, projectID string) error {
	p, err := s.Get(ctx, projectID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", p.ID).
			Delete(&models.ProjectContributorModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(p).Error
	})
}

// ForMember returns the projects a member contributed to, for their portfolio.
func (s *Service) ForMember(ctx context.Context, userID string) ([]models.ProjectModel, error) {
	var rows []models.ProjectContributorModel
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []models.ProjectModel{}, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ProjectID
	}
	var out []models.ProjectModel
	err := s.db.WithContext(ctx).
		Preload("Contributors").
		Preload("Contributors.User").
		Where("id IN ?", ids).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *Service) checkShares(ctx context.Context, contributors []ContributorDTO) error {
	seen := map[string]bool{}
	total := 0
	for _, c := range contributors {
		if c.Percent < 0 || c.Percent > MaxTotalPercent {
			return ErrInvalidPercent
		}
		if seen[c.UserID] {
			return ErrDuplicateContributor
		}
		seen[c.UserID] = true
		total += c.Percent

		var n int64
		if err := s.db.WithContext(ctx).Model(&models.UserModel{}).
			Where("id = ?", c.UserID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrContributorNotFound
		}
	}
	if total > MaxTotalPercent {
		return ErrContributionOverflow
	}
	return nil
}
