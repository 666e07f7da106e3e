package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	stdimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/clubworks/core/internal/models"
)

func setupImageTest(t *testing.T) (*Service, *gorm.DB, string) {
	t.Helper()
	dsn := fmt.Sprintf("file:image_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.ImageModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	dir := t.TempDir()
	return NewService(db, NewLocalStore(dir, "http://localhost:2330/static")), db, dir
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestUploadStoresFileAndMetadata(t *testing.T) {
	svc, db, dir := setupImageTest(t)

	img, err := svc.Upload(context.Background(), "alice", pngBytes(t, 4, 3))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if img.Mime != "image/png" {
		t.Fatalf("mime = %s", img.Mime)
	}
	if img.Width != 4 || img.Height != 3 {
		t.Fatalf("dimensions = %dx%d", img.Width, img.Height)
	}
	if !strings.HasPrefix(img.URL, "http://localhost:2330/static/images/") {
		t.Fatalf("url = %s", img.URL)
	}

	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(img.ObjectKey))); err != nil {
		t.Fatalf("binary not written: %v", err)
	}

	var count int64
	db.Model(&models.ImageModel{}).Count(&count)
	if count != 1 {
		t.Fatalf("want 1 metadata row, got %d", count)
	}
}

func TestUploadRejectsNonImages(t *testing.T) {
	svc, _, _ := setupImageTest(t)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, "alice", []byte("#!/bin/sh\nrm -rf /\n")); !errors.Is(err, ErrUnsupportedMime) {
		t.Fatalf("script upload, got %v", err)
	}
	if _, err := svc.Upload(ctx, "alice", nil); !errors.Is(err, ErrEmptyUpload) {
		t.Fatalf("empty upload, got %v", err)
	}
}

func TestURLForResolvesAndToleratesMisses(t *testing.T) {
	svc, _, _ := setupImageTest(t)

	img, err := svc.Upload(context.Background(), "alice", pngBytes(t, 1, 1))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if got := svc.URLFor(img.ID); got != img.URL {
		t.Fatalf("URLFor = %q, want %q", got, img.URL)
	}
	if got := svc.URLFor("no-such-image"); got != "" {
		t.Fatalf("unknown id should resolve empty, got %q", got)
	}
	if got := svc.URLFor(""); got != "" {
		t.Fatalf("blank id should resolve empty, got %q", got)
	}
}

func TestDeleteRemovesBinaryAndRow(t *testing.T) {
	svc, _, dir := setupImageTest(t)
	ctx := context.Background()

	img, err := svc.Upload(ctx, "alice", pngBytes(t, 1, 1))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := svc.Delete(ctx, img.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(img.ObjectKey))); !os.IsNotExist(err) {
		t.Fatalf("binary still on disk: %v", err)
	}
	if _, err := svc.Get(ctx, img.ID); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("want ErrImageNotFound, got %v", err)
	}
}
