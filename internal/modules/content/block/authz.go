package block

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clubworks/core/internal/models"
	"github.com/clubworks/core/internal/pkg/redis"
	"gorm.io/gorm"
)

// authzCacheTTL is the short window during which an author-or-admin decision
// for a (post, user) pair is reused without touching the database.
const authzCacheTTL = 30 * time.Second

// Authorizer resolves whether a user may mutate a post's blocks: the user must
// be the post's author or hold the admin role. Decisions are cached briefly in
// Redis per (post, user) pair.
type Authorizer struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewAuthorizer creates an Authorizer. rdb may be nil; caching is then skipped.
func NewAuthorizer(db *gorm.DB, rdb *redis.Client) *Authorizer {
	return &Authorizer{db: db, rdb: rdb}
}

func authzKey(postID, userID string) string {
	return fmt.Sprintf("club:authz:%s:%s", postID, userID)
}

// Resolve returns nil when userID may mutate postID's blocks, ErrForbidden
// when not, and ErrPostNotFound when the post does not exist. Post absence is
// never cached.
func (a *Authorizer) Resolve(ctx context.Context, postID, userID string) error {
	if userID == "" {
		return ErrForbidden
	}

	key := authzKey(postID, userID)
	if a.rdb != nil {
		if cached, err := a.rdb.Get(ctx, key); err == nil && cached != "" {
			if cached == "allow" {
				return nil
			}
			return ErrForbidden
		}
	}

	var post models.PostModel
	if err := a.db.WithContext(ctx).Select("id, author_id").First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	allowed := post.AuthorID == userID
	if !allowed {
		var user models.UserModel
		err := a.db.WithContext(ctx).
			Select("id, role").
			Where("id = ? AND is_active = ?", userID, true).
			First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return err
		default:
			allowed = user.IsAdmin()
		}
	}

	if a.rdb != nil {
		value := "deny"
		if allowed {
			value = "allow"
		}
		// Best effort; a write failure only costs us the cache hit.
		_ = a.rdb.Set(ctx, key, value, authzCacheTTL)
	}

	if !allowed {
		return ErrForbidden
	}
	return nil
}

// Invalidate drops every cached decision for a post. Called when the post is
// deleted.
func (a *Authorizer) Invalidate(ctx context.Context, postID string) {
	if a.rdb == nil {
		return
	}
	keys, err := a.rdb.ScanKeys(ctx, authzKey(postID, "*"))
	if err != nil || len(keys) == 0 {
		return
	}
	_ = a.rdb.Del(ctx, keys...)
}
