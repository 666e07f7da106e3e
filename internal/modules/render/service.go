package render

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/clubworks/core/internal/models"
	"github.com/clubworks/core/internal/modules/content/block"
	"github.com/clubworks/core/internal/modules/content/post"
)

// ImageURLResolver maps an image_id to a display URL, or "" when unknown.
type ImageURLResolver func(imageID string) string

// Service assembles a post's ordered blocks into one HTML fragment.
// Text block HTML is stored pre-sanitized at composition time and embedded
// as-is; every other payload field is escaped here.
type Service struct {
	posts      *post.Service
	blocks     *block.Service
	resolveURL ImageURLResolver
}

func NewService(posts *post.Service, blocks *block.Service, resolveURL ImageURLResolver) *Service {
	return &Service{posts: posts, blocks: blocks, resolveURL: resolveURL}
}

// Rendered is the assembled document for one post.
type Rendered struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Category string `json:"category"`
	HTML     string `json:"html"`
	Blocks   int    `json:"blocks"`
}

// Render loads the post and its blocks and concatenates them in order.
func (s *Service) Render(ctx context.Context, idOrSlug, viewerID, viewerRole string) (*Rendered, error) {
	p, err := s.posts.Get(ctx, idOrSlug, viewerID, viewerRole)
	if err != nil {
		return nil, err
	}

	blocks, err := s.blocks.ListBlocks(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	for i := range blocks {
		sb.WriteString(s.renderBlock(&blocks[i]))
	}

	return &Rendered{
		ID:       p.ID,
		Title:    p.Title,
		Slug:     p.Slug,
		Category: p.Category,
		HTML:     sb.String(),
		Blocks:   len(blocks),
	}, nil
}

func (s *Service) renderBlock(b *models.PostBlockModel) string {
	switch b.Type {
	case models.BlockTypeText:
		return fmt.Sprintf(`<section class="block block-text">%s</section>`, b.Content.HTML)

	case models.BlockTypeQuote:
		quote := html.EscapeString(b.Content.Quote)
		if b.Content.Source != "" {
			return fmt.Sprintf(
				`<blockquote class="block block-quote"><p>%s</p><cite>%s</cite></blockquote>`,
				quote, html.EscapeString(b.Content.Source))
		}
		return fmt.Sprintf(`<blockquote class="block block-quote"><p>%s</p></blockquote>`, quote)

	case models.BlockTypeImage:
		url := ""
		if s.resolveURL != nil {
			url = s.resolveURL(b.Content.ImageID)
		}
		if url == "" {
			// dangling image reference, keep the slot visible
			return `<figure class="block block-image block-image-missing"></figure>`
		}
		caption := html.EscapeString(b.Content.Caption)
		if caption != "" {
			return fmt.Sprintf(
				`<figure class="block block-image"><img src="%s" alt="%s"/><figcaption>%s</figcaption></figure>`,
				html.EscapeString(url), caption, caption)
		}
		return fmt.Sprintf(`<figure class="block block-image"><img src="%s" alt=""/></figure>`, html.EscapeString(url))

	case models.BlockTypeYoutube:
		videoID := b.Content.VideoID
		if videoID == "" {
			videoID = extractVideoID(b.Content.YoutubeURL)
		}
		if videoID == "" {
			return ""
		}
		return fmt.Sprintf(
			`<div class="block block-youtube"><iframe src="https://www.youtube-nocookie.com/embed/%s" allowfullscreen></iframe></div>`,
			html.EscapeString(videoID))
	}
	return ""
}

// extractVideoID pulls the id out of watch, share and embed URL shapes.
func extractVideoID(url string) string {
	for _, marker := range []string{"v=", "youtu.be/", "/embed/"} {
		if i := strings.Index(url, marker); i >= 0 {
			id := url[i+len(marker):]
			if j := strings.IndexAny(id, "?&#/"); j >= 0 {
				id = id[:j]
			}
			return id
		}
	}
	return ""
}
