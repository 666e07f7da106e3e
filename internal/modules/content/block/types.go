package block

import (
	"errors"
	"time"

	"github.com/clubworks/core/internal/models"
)

// Structural limits on a post's block collection.
const (
	MaxBlocksPerPost = 15
	MaxImageBlocks   = 5
	MaxTextWordCount = 800
)

// Validation and lookup failures. Each rejected operation maps to exactly one
// of these; the block collection is left untouched on any of them.
var (
	ErrPostNotFound  = errors.New("post not found")
	ErrBlockNotFound = errors.New("block not found")
	ErrForbidden     = errors.New("not the post author or an admin")

	ErrInvalidBlockType    = errors.New("invalid block type")
	ErrTextBlockInvalid    = errors.New("text block requires html and word_count")
	ErrTextTooLong         = errors.New("text block exceeds the word count limit")
	ErrQuoteBlockInvalid   = errors.New("quote block requires quote text")
	ErrImageBlockInvalid   = errors.New("image block requires image_id")
	ErrYoutubeBlockInvalid = errors.New("youtube block requires youtube_url and video_id")

	ErrTooManyBlocks         = errors.New("post already has the maximum number of blocks")
	ErrTooManyImageBlocks    = errors.New("post already has the maximum number of image blocks")
	ErrConsecutiveTextBlocks = errors.New("text block cannot directly follow another text block")
)

// AddBlockDTO is the request body of POST /posts/:id/blocks.
type AddBlockDTO struct {
	Type       string              `json:"type"        binding:"required"`
	Content    models.BlockContent `json:"content"`
	OrderIndex int                 `json:"order_index"`
}

// UpdateBlockDTO is the request body of PUT /posts/:id/blocks/:blockId.
// Only fields present in the patch are applied.
type UpdateBlockDTO struct {
	Content    *models.BlockContent `json:"content"`
	OrderIndex *int                 `json:"order_index"`
}

type blockResponse struct {
	ID         string              `json:"id"`
	PostID     string              `json:"post_id"`
	Type       string              `json:"type"`
	Content    models.BlockContent `json:"content"`
	OrderIndex int                 `json:"order_index"`
	ImageURL   string              `json:"image_url,omitempty"`
	Created    time.Time           `json:"created"`
	Modified   time.Time           `json:"modified"`
}

func toResponse(b *models.PostBlockModel, imageURL string) blockResponse {
	return blockResponse{
		ID:         b.ID,
		PostID:     b.PostID,
		Type:       b.Type,
		Content:    b.Content,
		OrderIndex: b.OrderIndex,
		ImageURL:   imageURL,
		Created:    b.CreatedAt,
		Modified:   b.UpdatedAt,
	}
}
