package block

import (
	"context"
	"errors"

	"github.com/clubworks/core/internal/models"
	"gorm.io/gorm"
)

// Service validates and orders the content blocks attached to a post.
//
// Structural checks (count ceilings, text adjacency) are evaluated against a
// sibling snapshot read fresh at the start of each mutating call. There is no
// locking across concurrent writers, so the invariants are advisory under
// races: two adds that each see 14 siblings can both commit.
type Service struct {
	db    *gorm.DB
	authz *Authorizer
}

func NewService(db *gorm.DB, authz *Authorizer) *Service {
	return &Service{db: db, authz: authz}
}

// ListBlocks returns all blocks of a post sorted ascending by order_index.
// Blocks sharing an order_index keep storage order; callers must not rely on a
// deterministic tie-break.
func (s *Service) ListBlocks(ctx context.Context, postID string) ([]models.PostBlockModel, error) {
	var blocks []models.PostBlockModel
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("order_index ASC").
		Find(&blocks).Error
	return blocks, err
}

// AddBlock validates and persists a new block for the post.
//
// Validation order: type, type-specific payload shape, then structural checks
// against the current sibling set. The first violated rule is returned and
// nothing is written. order_index is stored verbatim; siblings are never
// re-indexed.
func (s *Service) AddBlock(ctx context.Context, postID string, dto *AddBlockDTO, actorID string) (*models.PostBlockModel, error) {
	if err := s.authz.Resolve(ctx, postID, actorID); err != nil {
		return nil, err
	}

	if !models.IsValidBlockType(dto.Type) {
		return nil, ErrInvalidBlockType
	}
	if err := validatePayload(dto.Type, &dto.Content); err != nil {
		return nil, err
	}

	siblings, err := s.ListBlocks(ctx, postID)
	if err != nil {
		return nil, err
	}

	if len(siblings) >= MaxBlocksPerPost {
		return nil, ErrTooManyBlocks
	}
	if dto.Type == models.BlockTypeImage && countType(siblings, models.BlockTypeImage) >= MaxImageBlocks {
		return nil, ErrTooManyImageBlocks
	}
	if dto.Type == models.BlockTypeText && len(siblings) > 0 &&
		siblings[len(siblings)-1].Type == models.BlockTypeText {
		return nil, ErrConsecutiveTextBlocks
	}

	b := models.PostBlockModel{
		PostID:     postID,
		Type:       dto.Type,
		Content:    dto.Content,
		OrderIndex: dto.OrderIndex,
	}
	if err := s.db.WithContext(ctx).Create(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBlock applies a partial patch to a block.
//
// A content patch on a stored text block re-checks only the word count
// ceiling; other payload shapes are not re-validated here. An order_index
// patch is applied verbatim without re-running the adjacency or count checks,
// so reordering can produce states a fresh AddBlock would reject.
func (s *Service) UpdateBlock(ctx context.Context, postID, blockID string, dto *UpdateBlockDTO, actorID string) (*models.PostBlockModel, error) {
	if err := s.authz.Resolve(ctx, postID, actorID); err != nil {
		return nil, err
	}

	b, err := s.getOwned(ctx, postID, blockID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if dto.Content != nil {
		if b.Type == models.BlockTypeText && dto.Content.WordCount > MaxTextWordCount {
			return nil, ErrTextTooLong
		}
		b.Content = *dto.Content
		updates["content"] = b.Content
	}
	if dto.OrderIndex != nil {
		b.OrderIndex = *dto.OrderIndex
		updates["order_index"] = b.OrderIndex
	}
	if len(updates) == 0 {
		return b, nil
	}

	if err := s.db.WithContext(ctx).Model(b).Updates(updates).Error; err != nil {
		return nil, err
	}
	return b, nil
}

// RemoveBlock deletes a block. Removal needs no structural re-validation:
// taking a block out cannot violate the count or adjacency rules.
func (s *Service) RemoveBlock(ctx context.Context, postID, blockID string, actorID string) error {
	if err := s.authz.Resolve(ctx, postID, actorID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND post_id = ?", blockID, postID).
		Delete(&models.PostBlockModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBlockNotFound
	}
	return nil
}

func (s *Service) getOwned(ctx context.Context, postID, blockID string) (*models.PostBlockModel, error) {
	var b models.PostBlockModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND post_id = ?", blockID, postID).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}
	return &b, nil
}

func validatePayload(blockType string, content *models.BlockContent) error {
	switch blockType {
	case models.BlockTypeText:
		if content.HTML == "" || content.WordCount <= 0 {
			return ErrTextBlockInvalid
		}
		if content.WordCount > MaxTextWordCount {
			return ErrTextTooLong
		}
	case models.BlockTypeQuote:
		if content.Quote == "" {
			return ErrQuoteBlockInvalid
		}
	case models.BlockTypeImage:
		if content.ImageID == "" {
			return ErrImageBlockInvalid
		}
	case models.BlockTypeYoutube:
		if content.YoutubeURL == "" || content.VideoID == "" {
			return ErrYoutubeBlockInvalid
		}
	}
	return nil
}

func countType(blocks []models.PostBlockModel, blockType string) int {
	n := 0
	for _, b := range blocks {
		if b.Type == blockType {
			n++
		}
	}
	return n
}
