package post

import (
	"time"

	"github.com/clubworks/core/internal/models"
)

type CreatePostDTO struct {
	Title       string   `json:"title"    binding:"required"`
	Slug        string   `json:"slug"     binding:"required"`
	Summary     string   `json:"summary"`
	SummaryIntl string   `json:"summary_intl"`
	Category    string   `json:"category" binding:"required"`
	Cover       string   `json:"cover"`
	Tags        []string `json:"tags"`
	RelatedIDs  []string `json:"related_ids"`
}

type UpdatePostDTO struct {
	Title       *string  `json:"title"`
	Slug        *string  `json:"slug"`
	Summary     *string  `json:"summary"`
	SummaryIntl *string  `json:"summary_intl"`
	Category    *string  `json:"category"`
	Cover       *string  `json:"cover"`
	Tags        []string `json:"tags"`
	RelatedIDs  []string `json:"related_ids"`
}

// ListQuery narrows the post listing.
type ListQuery struct {
	Category string `form:"category"`
	Status   string `form:"status"`
	Author   string `form:"author"`
}

type authorSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

type postResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Summary     string         `json:"summary"`
	SummaryIntl string         `json:"summary_intl,omitempty"`
	Category    string         `json:"category"`
	Status      string         `json:"status"`
	Cover       string         `json:"cover,omitempty"`
	Tags        []string       `json:"tags"`
	Read        int            `json:"read"`
	Upvotes     int            `json:"upvotes"`
	RelatedIDs  []string       `json:"related_ids"`
	Author      *authorSummary `json:"author,omitempty"`
	Created     time.Time      `json:"created"`
	Modified    time.Time      `json:"modified"`
}

func toResponse(p *models.PostModel) postResponse {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	related := []string(p.RelatedIDs)
	if related == nil {
		related = []string{}
	}
	out := postResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Summary:     p.Summary,
		SummaryIntl: p.SummaryIntl,
		Category:    p.Category,
		Status:      p.Status,
		Cover:       p.Cover,
		Tags:        tags,
		Read:        p.ReadCount,
		Upvotes:     p.UpvoteCount,
		RelatedIDs:  related,
		Created:     p.CreatedAt,
		Modified:    p.UpdatedAt,
	}
	if p.Author != nil {
		out.Author = &authorSummary{
			ID:       p.Author.ID,
			Username: p.Author.Username,
			Name:     p.Author.Name,
			Avatar:   p.Author.Avatar,
		}
	}
	return out
}
