package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	stdimage "image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clubworks/core/internal/models"
	"github.com/clubworks/core/internal/pkg/pagination"
	"github.com/clubworks/core/internal/pkg/response"
)

// MaxUploadBytes caps a single image upload.
const MaxUploadBytes = 8 << 20

var (
	ErrImageNotFound   = errors.New("image not found")
	ErrEmptyUpload     = errors.New("empty upload")
	ErrUploadTooLarge  = errors.New("image exceeds the size limit")
	ErrUnsupportedMime = errors.New("unsupported image type")

	allowedMimes = map[string]string{
		"image/png":  "png",
		"image/jpeg": "jpg",
		"image/gif":  "gif",
		"image/webp": "webp",
	}
)

// Service stores image binaries and their metadata rows.
type Service struct {
	db    *gorm.DB
	store ObjectStore
}

func NewService(db *gorm.DB, store ObjectStore) *Service {
	return &Service{db: db, store: store}
}

// Upload sniffs the content type, stores the binary and records metadata.
// Dimensions are 0 for formats the decoder does not know (webp).
func (s *Service) Upload(ctx context.Context, uploaderID string, data []byte) (*models.ImageModel, error) {
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrUploadTooLarge
	}

	mime := http.DetectContentType(data)
	ext, ok := allowedMimes[mime]
	if !ok {
		return nil, ErrUnsupportedMime
	}

	var width, height int
	if cfg, _, err := stdimage.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height = cfg.Width, cfg.Height
	}

	key := fmt.Sprintf("images/%s/%s.%s",
		time.Now().Format("2006/01"), uuid.NewString(), ext)
	url, err := s.store.Put(ctx, key, mime, data)
	if err != nil {
		return nil, err
	}

	img := models.ImageModel{
		ObjectKey:  key,
		URL:        url,
		Mime:       mime,
		Width:      width,
		Height:     height,
		SizeBytes:  int64(len(data)),
		UploaderID: uploaderID,
	}
	if err := s.db.WithContext(ctx).Create(&img).Error; err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, err
	}
	return &img, nil
}

// Get loads one image's metadata.
func (s *Service) Get(ctx context.Context, imageID string) (*models.ImageModel, error) {
	var img models.ImageModel
	err := s.db.WithContext(ctx).First(&img, "id = ?", imageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// List returns image metadata, optionally filtered to one uploader.
func (s *Service) List(ctx context.Context, uploaderID string, p pagination.Query) ([]models.ImageModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).Model(&models.ImageModel{}).Order("created_at DESC")
	if uploaderID != "" {
		tx = tx.Where("uploader_id = ?", uploaderID)
	}

	var out []models.ImageModel
	meta, err := pagination.Paginate[models.ImageModel](tx, p, &out)
	return out, meta, err
}

// Delete removes the binary and the metadata row.
func (s *Service) Delete(ctx context.Context, imageID string) error {
	img, err := s.Get(ctx, imageID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, img.ObjectKey); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(img).Error
}

// URLFor resolves an image id to its public URL, or "" when unknown.
// Used when rendering image blocks.
func (s *Service) URLFor(imageID string) string {
	if strings.TrimSpace(imageID) == "" {
		return ""
	}
	var img models.ImageModel
	if err := s.db.Select("url").First(&img, "id = ?", imageID).Error; err != nil {
		return ""
	}
	return img.URL
}
