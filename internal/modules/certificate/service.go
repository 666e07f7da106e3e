package certificate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clubworks/core/internal/models"
	"github.com/clubworks/core/internal/pkg/pagination"
	"github.com/clubworks/core/internal/pkg/response"
)

var (
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrAlreadyRevoked      = errors.New("certificate already revoked")
)

// Service issues and verifies member certificates. Serials are random so they
// cannot be enumerated.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type IssueDTO struct {
	MemberID    string `json:"member_id"   binding:"required"`
	Title       string `json:"title"       binding:"required"`
	Description string `json:"description"`
}

// VerifyResult is the public answer for a serial lookup. Revoked and unknown
// serials both come back invalid; only valid ones carry the certificate.
type VerifyResult struct {
	Valid       bool       `json:"valid"`
	Certificate *certInfo  `json:"certificate,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

type certInfo struct {
	Serial      string    `json:"serial"`
	MemberName  string    `json:"member_name"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
}

// Issue creates a certificate for a member. Admin only, enforced by routing.
func (s *Service) Issue(ctx context.Context, issuerID string, dto IssueDTO) (*models.CertificateModel, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", dto.MemberID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrMemberNotFound
	}

	cert := models.CertificateModel{
		Serial:      uuid.NewString(),
		MemberID:    dto.MemberID,
		Title:       dto.Title,
		Description: dto.Description,
		IssuedBy:    issuerID,
		IssuedAt:    time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

// Revoke invalidates a certificate without deleting the record.
func (s *Service) Revoke(ctx context.Context, certID string) (*models.CertificateModel, error) {
	var cert models.CertificateModel
	err := s.db.WithContext(ctx).First(&cert, "id = ?", certID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCertificateNotFound
	}
	if err != nil {
		return nil, err
	}
	if cert.RevokedAt != nil {
		return nil, ErrAlreadyRevoked
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&cert).Update("revoked_at", &now).Error; err != nil {
		return nil, err
	}
	cert.RevokedAt = &now
	return &cert, nil
}

// List returns certificates, optionally filtered to one member.
func (s *Service) List(ctx context.Context, memberID string, p pagination.Query) ([]models.CertificateModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).Model(&models.CertificateModel{}).
		Preload("Member").
		Order("issued_at DESC")
	if memberID != "" {
		tx = tx.Where("member_id = ?", memberID)
	}

	var out []models.CertificateModel
	meta, err := pagination.Paginate[models.CertificateModel](tx, p, &out)
	return out, meta, err
}

// Verify is the public serial check. Unknown serials verify as invalid rather
// than erroring, so the endpoint leaks nothing about which serials exist.
func (s *Service) Verify(ctx context.Context, serial string) (*VerifyResult, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return &VerifyResult{Valid: false}, nil
	}

	var cert models.CertificateModel
	err := s.db.WithContext(ctx).Preload("Member").
		First(&cert, "serial = ?", serial).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &VerifyResult{Valid: false}, nil
	}
	if err != nil {
		return nil, err
	}

	if !cert.IsValid() {
		return &VerifyResult{Valid: false, RevokedAt: cert.RevokedAt}, nil
	}

	info := certInfo{
		Serial:      cert.Serial,
		Title:       cert.Title,
		Description: cert.Description,
		IssuedAt:    cert.IssuedAt,
	}
	if cert.Member != nil {
		info.MemberName = cert.Member.Name
	}
	return &VerifyResult{Valid: true, Certificate: &info}, nil
}
