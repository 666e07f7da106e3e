package post

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/clubworks/core/internal/models"
	"github.com/clubworks/core/internal/modules/content/block"
	"github.com/clubworks/core/internal/pkg/pagination"
	"github.com/clubworks/core/internal/pkg/redis"
	"github.com/clubworks/core/internal/pkg/response"
)

const (
	// MaxRelatedPosts caps the related article links on a post.
	MaxRelatedPosts = 2

	readBufferPrefix = "club:read_buf:"
	upvoteDedupTTL   = 0 // upvotes never expire
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrForbidden        = errors.New("not the post author")
	ErrSlugTaken        = errors.New("slug already in use")
	ErrInvalidCategory  = errors.New("unknown post category")
	ErrInvalidStatus    = errors.New("invalid status transition")
	ErrTooManyRelated   = errors.New("too many related posts")
	ErrRelatedNotFound  = errors.New("related post does not exist")
	ErrAlreadyUpvoted   = errors.New("already upvoted")
	ErrSelfRelated      = errors.New("post cannot relate to itself")
)

// Service owns post lifecycle. Block rows are managed by the block service;
// deleting a post cascades over its block and upvote rows directly.
type Service struct {
	db    *gorm.DB
	rdb   *redis.Client
	authz *block.Authorizer
}

// NewService creates the post service. authz may be nil; cached block
// authorization decisions are then left to expire on their own.
func NewService(db *gorm.DB, rdb *redis.Client, authz *block.Authorizer) *Service {
	return &Service{db: db, rdb: rdb, authz: authz}
}

// List returns posts matching the query. Unauthenticated and non-admin callers
// only ever see published posts unless they filter by their own author id.
func (s *Service) List(ctx context.Context, q ListQuery, p pagination.Query, viewerID, viewerRole string) ([]models.PostModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).Model(&models.PostModel{}).Preload("Author")

	if q.Category != "" {
		if !models.IsValidCategory(q.Category) {
			return nil, response.Pagination{}, ErrInvalidCategory
		}
		tx = tx.Where("category = ?", q.Category)
	}
	if q.Author != "" {
		tx = tx.Where("author_id = ?", q.Author)
	}

	privileged := viewerRole == models.RoleAdmin || (q.Author != "" && q.Author == viewerID)
	switch {
	case !privileged:
		tx = tx.Where("status = ?", models.PostStatusPublished)
	case q.Status != "":
		tx = tx.Where("status = ?", q.Status)
	}

	tx = tx.Order("created_at DESC")
	var out []models.PostModel
	meta, err := pagination.Paginate[models.PostModel](tx, p, &out)
	return out, meta, err
}

// Get fetches a post by id or slug. Draft and archived posts are only visible
// to their author and admins.
func (s *Service) Get(ctx context.Context, idOrSlug, viewerID, viewerRole string) (*models.PostModel, error) {
	var p models.PostModel
	err := s.db.WithContext(ctx).Preload("Author").
		Where("id = ? OR slug = ?", idOrSlug, idOrSlug).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Status != models.PostStatusPublished &&
		p.AuthorID != viewerID && viewerRole != models.RoleAdmin {
		return nil, ErrPostNotFound
	}
	return &p, nil
}

// Create inserts a draft post owned by authorID.
func (s *Service) Create(ctx context.Context, authorID string, dto CreatePostDTO) (*models.PostModel, error) {
	if !models.IsValidCategory(dto.Category) {
		return nil, ErrInvalidCategory
	}
	slug := strings.TrimSpace(dto.Slug)
	if err := s.checkSlug(ctx, slug, ""); err != nil {
		return nil, err
	}
	related, err := s.checkRelated(ctx, dto.RelatedIDs, "")
	if err != nil {
		return nil, err
	}

	p := models.PostModel{
		Title:       dto.Title,
		Slug:        slug,
		Summary:     dto.Summary,
		SummaryIntl: dto.SummaryIntl,
		Category:    dto.Category,
		Status:      models.PostStatusDraft,
		AuthorID:    authorID,
		Cover:       dto.Cover,
		Tags:        dto.Tags,
		RelatedIDs:  related,
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Update patches post metadata. Only fields present in the DTO change.
func (s *Service) Update(ctx context.Context, postID, userID, role string, dto UpdatePostDTO) (*models.PostModel, error) {
	p, err := s.getOwned(ctx, postID, userID, role)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.Slug != nil {
		slug := strings.TrimSpace(*dto.Slug)
		if err := s.checkSlug(ctx, slug, p.ID); err != nil {
			return nil, err
		}
		updates["slug"] = slug
	}
	if dto.Summary != nil {
		updates["summary"] = *dto.Summary
	}
	if dto.SummaryIntl != nil {
		updates["summary_intl"] = *dto.SummaryIntl
	}
	if dto.Category != nil {
		if !models.IsValidCategory(*dto.Category) {
			return nil, ErrInvalidCategory
		}
		updates["category"] = *dto.Category
	}
	if dto.Cover != nil {
		updates["cover"] = *dto.Cover
	}
	if dto.Tags != nil {
		updates["tags"] = models.StringArray(dto.Tags)
	}
	if dto.RelatedIDs != nil {
		related, err := s.checkRelated(ctx, dto.RelatedIDs, p.ID)
		if err != nil {
			return nil, err
		}
		updates["related_ids"] = related
	}

	if len(updates) == 0 {
		return p, nil
	}
	if err := s.db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// SetStatus moves a post through draft -> published -> archived. Publishing an
// archived post resurfaces it; a published post cannot return to draft.
func (s *Service) SetStatus(ctx context.Context, postID, userID, role, status string) (*models.PostModel, error) {
	p, err := s.getOwned(ctx, postID, userID, role)
	if err != nil {
		return nil, err
	}
	if !validTransition(p.Status, status) {
		return nil, ErrInvalidStatus
	}
	if err := s.db.WithContext(ctx).Model(p).Update("status", status).Error; err != nil {
		return nil, err
	}
	p.Status = status
	return p, nil
}

// Delete removes a post together with its blocks and upvote records.
func (s *Service) Delete(ctx context.Context, postID, userID, role string) error {
	p, err := s.getOwned(ctx, postID, userID, role)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", p.ID).Delete(&models.PostBlockModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", p.ID).Delete(&models.PostUpvoteModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(p).Error
	})
	if err != nil {
		return err
	}
	if s.authz != nil {
		s.authz.Invalidate(ctx, p.ID)
	}
	return nil
}

func upvoteKey(postID, voterKey string) string {
	return fmt.Sprintf("club:upvote:%s:%s", postID, voterKey)
}

// Upvote records one vote per voter key. Duplicate votes return ErrAlreadyUpvoted.
// The dedup check goes through Redis first so the hot path skips the database.
func (s *Service) Upvote(ctx context.Context, postID, voterKey string) (int, error) {
	var p models.PostModel
	err := s.db.WithContext(ctx).Select("id, upvote_count, status").First(&p, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrPostNotFound
	}
	if err != nil {
		return 0, err
	}

	if s.rdb != nil {
		ok, err := s.rdb.SetNX(ctx, upvoteKey(postID, voterKey), "1", upvoteDedupTTL)
		if err == nil && !ok {
			return p.UpvoteCount, ErrAlreadyUpvoted
		}
	}

	vote := models.PostUpvoteModel{PostID: postID, VoterKey: voterKey}
	if err := s.db.WithContext(ctx).Create(&vote).Error; err != nil {
		// unique index on (post_id, voter_key) catches repeats when the
		// Redis marker is missing
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return p.UpvoteCount, ErrAlreadyUpvoted
		}
		// the marker never expires; drop it so the voter can retry
		if s.rdb != nil {
			_ = s.rdb.Del(ctx, upvoteKey(postID, voterKey))
		}
		return 0, err
	}

	if err := s.db.WithContext(ctx).Model(&models.PostModel{}).
		Where("id = ?", postID).
		UpdateColumn("upvote_count", gorm.Expr("upvote_count + 1")).Error; err != nil {
		return p.UpvoteCount, err
	}
	return p.UpvoteCount + 1, nil
}

// RecordRead buffers a read hit in Redis. FlushReadCounts moves the buffered
// totals into MySQL; until then the stored read_count lags.
func (s *Service) RecordRead(ctx context.Context, postID string) {
	if s.rdb == nil {
		s.db.WithContext(ctx).Model(&models.PostModel{}).
			Where("id = ?", postID).
			UpdateColumn("read_count", gorm.Expr("read_count + 1"))
		return
	}
	_, _ = s.rdb.IncrBy(ctx, readBufferPrefix+postID, 1)
}

// FlushReadCounts drains the Redis read buffers into the posts table.
// Meant to run on an interval from the scheduler.
func (s *Service) FlushReadCounts(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	keys, err := s.rdb.ScanKeys(ctx, readBufferPrefix+"*")
	if err != nil {
		return err
	}
	for _, key := range keys {
		val, err := s.rdb.Get(ctx, key)
		if err != nil || val == "" {
			continue
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil || n <= 0 {
			_ = s.rdb.Del(ctx, key)
			continue
		}
		postID := strings.TrimPrefix(key, readBufferPrefix)
		if err := s.db.WithContext(ctx).Model(&models.PostModel{}).
			Where("id = ?", postID).
			UpdateColumn("read_count", gorm.Expr("read_count + ?", n)).Error; err != nil {
			return err
		}
		_ = s.rdb.Del(ctx, key)
	}
	return nil
}

// Related resolves the post's related ids into published posts. Dangling ids
// are silently skipped.
func (s *Service) Related(ctx context.Context, p *models.PostModel) ([]models.PostModel, error) {
	if len(p.RelatedIDs) == 0 {
		return []models.PostModel{}, nil
	}
	var out []models.PostModel
	err := s.db.WithContext(ctx).
		Where("id IN ? AND status = ?", []string(p.RelatedIDs), models.PostStatusPublished).
		Find(&out).Error
	return out, err
}

func (s *Service) getOwned(ctx context.Context, postID, userID, role string) (*models.PostModel, error) {
	var p models.PostModel
	err := s.db.WithContext(ctx).First(&p, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.AuthorID != userID && role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return &p, nil
}

func (s *Service) checkSlug(ctx context.Context, slug, excludeID string) error {
	if slug == "" {
		return ErrSlugTaken
	}
	tx := s.db.WithContext(ctx).Model(&models.PostModel{}).Where("slug = ?", slug)
	if excludeID != "" {
		tx = tx.Where("id <> ?", excludeID)
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrSlugTaken
	}
	return nil
}

func (s *Service) checkRelated(ctx context.Context, ids []string, selfID string) (models.StringArray, error) {
	if len(ids) == 0 {
		return models.StringArray{}, nil
	}
	if len(ids) > MaxRelatedPosts {
		return nil, ErrTooManyRelated
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if id == selfID && selfID != "" {
			return nil, ErrSelfRelated
		}
		if seen[id] {
			return nil, ErrRelatedNotFound
		}
		seen[id] = true
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.PostModel{}).
			Where("id = ?", id).Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrRelatedNotFound
		}
	}
	return models.StringArray(ids), nil
}

func validTransition(from, to string) bool {
	switch to {
	case models.PostStatusPublished:
		return from == models.PostStatusDraft || from == models.PostStatusArchived
	case models.PostStatusArchived:
		return from == models.PostStatusPublished
	case models.PostStatusDraft:
		return from == models.PostStatusDraft
	default:
		return false
	}
}
