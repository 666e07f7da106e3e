package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/clubworks/core/internal/models"
	"github.com/clubworks/core/internal/modules/content/block"
	"github.com/clubworks/core/internal/modules/content/post"
)

func setupRenderTest(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:render_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.UserModel{},
		&models.PostModel{},
		&models.PostBlockModel{},
		&models.PostUpvoteModel{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	resolve := func(imageID string) string {
		if imageID == "img-1" {
			return "http://cdn.example/img-1.png"
		}
		return ""
	}
	posts := post.NewService(db, nil, nil)
	blocks := block.NewService(db, block.NewAuthorizer(db, nil))
	return NewService(posts, blocks, resolve), db
}

func seedPublishedPost(t *testing.T, db *gorm.DB) *models.PostModel {
	t.Helper()
	u := models.UserModel{
		Base:     models.Base{ID: "author"},
		Username: "author",
		Name:     "Author",
		Password: "x",
		Role:     models.RoleMember,
		IsActive: true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	p := models.PostModel{
		Title:    "Rendered",
		Slug:     "rendered",
		Category: models.CategoryTechBlog,
		Status:   models.PostStatusPublished,
		AuthorID: "author",
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return &p
}

func seedBlock(t *testing.T, db *gorm.DB, postID, typ string, order int, content models.BlockContent) {
	t.Helper()
	b := models.PostBlockModel{PostID: postID, Type: typ, Content: content, OrderIndex: order}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("seed block: %v", err)
	}
}

func TestRenderAssemblesBlocksInOrder(t *testing.T) {
	svc, db := setupRenderTest(t)
	p := seedPublishedPost(t, db)

	seedBlock(t, db, p.ID, models.BlockTypeQuote, 10, models.BlockContent{Quote: "ship it", Source: "someone"})
	seedBlock(t, db, p.ID, models.BlockTypeText, 0, models.BlockContent{HTML: "<p>first</p>", WordCount: 1})
	seedBlock(t, db, p.ID, models.BlockTypeImage, 5, models.BlockContent{ImageID: "img-1", Caption: "a chart"})

	doc, err := svc.Render(context.Background(), p.ID, "", "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if doc.Blocks != 3 {
		t.Fatalf("want 3 blocks, got %d", doc.Blocks)
	}

	textIdx := strings.Index(doc.HTML, "<p>first</p>")
	imgIdx := strings.Index(doc.HTML, "cdn.example/img-1.png")
	quoteIdx := strings.Index(doc.HTML, "ship it")
	if textIdx < 0 || imgIdx < 0 || quoteIdx < 0 {
		t.Fatalf("missing block output: %s", doc.HTML)
	}
	if !(textIdx < imgIdx && imgIdx < quoteIdx) {
		t.Fatalf("blocks out of order: text=%d img=%d quote=%d", textIdx, imgIdx, quoteIdx)
	}
}

func TestRenderEscapesQuotePayload(t *testing.T) {
	svc, db := setupRenderTest(t)
	p := seedPublishedPost(t, db)
	seedBlock(t, db, p.ID, models.BlockTypeQuote, 0, models.BlockContent{Quote: `<script>alert(1)</script>`})

	doc, err := svc.Render(context.Background(), p.ID, "", "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(doc.HTML, "<script>") {
		t.Fatalf("quote payload not escaped: %s", doc.HTML)
	}
	if !strings.Contains(doc.HTML, "&lt;script&gt;") {
		t.Fatalf("escaped quote missing: %s", doc.HTML)
	}
}

func TestRenderDanglingImageKeepsSlot(t *testing.T) {
	svc, db := setupRenderTest(t)
	p := seedPublishedPost(t, db)
	seedBlock(t, db, p.ID, models.BlockTypeImage, 0, models.BlockContent{ImageID: "gone"})

	doc, err := svc.Render(context.Background(), p.ID, "", "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(doc.HTML, "block-image-missing") {
		t.Fatalf("dangling image should keep a visible slot: %s", doc.HTML)
	}
	if strings.Contains(doc.HTML, "<img") {
		t.Fatalf("dangling image must not emit an img tag: %s", doc.HTML)
	}
}

func TestRenderYoutubeVariants(t *testing.T) {
	svc, db := setupRenderTest(t)
	p := seedPublishedPost(t, db)
	seedBlock(t, db, p.ID, models.BlockTypeYoutube, 0,
		models.BlockContent{YoutubeURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=1s"})
	seedBlock(t, db, p.ID, models.BlockTypeYoutube, 1,
		models.BlockContent{YoutubeURL: "https://youtu.be/abc123xyz"})

	doc, err := svc.Render(context.Background(), p.ID, "", "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(doc.HTML, "embed/dQw4w9WgXcQ") {
		t.Fatalf("watch url id not extracted: %s", doc.HTML)
	}
	if !strings.Contains(doc.HTML, "embed/abc123xyz") {
		t.Fatalf("short url id not extracted: %s", doc.HTML)
	}
}

func TestRenderHidesDrafts(t *testing.T) {
	svc, db := setupRenderTest(t)
	p := seedPublishedPost(t, db)
	if err := db.Model(p).Update("status", models.PostStatusDraft).Error; err != nil {
		t.Fatalf("to draft: %v", err)
	}

	if _, err := svc.Render(context.Background(), p.ID, "", ""); !errors.Is(err, post.ErrPostNotFound) {
		t.Fatalf("draft render for guest, got %v", err)
	}
	if _, err := svc.Render(context.Background(), p.ID, "author", models.RoleMember); err != nil {
		t.Fatalf("author render: %v", err)
	}
}
