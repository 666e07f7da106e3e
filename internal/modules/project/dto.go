package project

import (
	"time"

	"github.com/clubworks/core/internal/models"
)

type CreateProjectDTO struct {
	Name        string           `json:"name" binding:"required"`
	PreviewURL  string           `json:"preview_url"`
	DocURL      string           `json:"doc_url"`
	RepoURL     string           `json:"repo_url"`
	Images      []string         `json:"images"`
	Description string           `json:"description"`
	Avatar      string           `json:"avatar"`
	Text        string           `json:"text"`
	Contributors []ContributorDTO `json:"contributors"`
}

type UpdateProjectDTO struct {
	Name        *string  `json:"name"`
	PreviewURL  *string  `json:"preview_url"`
	DocURL      *string  `json:"doc_url"`
	RepoURL     *string  `json:"repo_url"`
	Images      []string `json:"images"`
	Description *string  `json:"description"`
	Avatar      *string  `json:"avatar"`
	Text        *string  `json:"text"`
}

// ContributorDTO is one member's share of a project.
type ContributorDTO struct {
	UserID  string `json:"user_id" binding:"required"`
	Role    string `json:"role"`
	Percent int    `json:"percent"`
}

type contributorResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role"`
	Percent  int    `json:"percent"`
}

type projectResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	PreviewURL   string                `json:"preview_url,omitempty"`
	DocURL       string                `json:"doc_url,omitempty"`
	RepoURL      string                `json:"repo_url,omitempty"`
	Images       []string              `json:"images"`
	Description  string                `json:"description"`
	Avatar       string                `json:"avatar,omitempty"`
	Text         string                `json:"text,omitempty"`
	TextHTML     string                `json:"text_html,omitempty"`
	Contributors []contributorResponse `json:"contributors"`
	Created      time.Time             `json:"created"`
	Modified     time.Time             `json:"modified"`
}

func toResponse(p *models.ProjectModel, textHTML string) projectResponse {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	contributors := make([]contributorResponse, len(p.Contributors))
	for i, c := range p.Contributors {
		cr := contributorResponse{
			UserID:  c.UserID,
			Role:    c.Role,
			Percent: c.Percent,
		}
		if c.User != nil {
			cr.Username = c.User.Username
			cr.Name = c.User.Name
			cr.Avatar = c.User.Avatar
		}
		contributors[i] = cr
	}
	return projectResponse{
		ID:           p.ID,
		Name:         p.Name,
		PreviewURL:   p.PreviewURL,
		DocURL:       p.DocURL,
		RepoURL:      p.RepoURL,
		Images:       images,
		Description:  p.Description,
		Avatar:       p.Avatar,
		Text:         p.Text,
		TextHTML:     textHTML,
		Contributors: contributors,
		Created:      p.CreatedAt,
		Modified:     p.UpdatedAt,
	}
}
