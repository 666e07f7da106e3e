package models

import "time"

// CertificateModel is an issued membership/achievement certificate.
// Serial is the public verification handle.
type CertificateModel struct {
	Base
	Serial      string     `json:"serial"      gorm:"uniqueIndex;not null"`
	MemberID    string     `json:"member_id"   gorm:"type:char(36);index;not null"`
	Member      *UserModel `json:"member,omitempty" gorm:"foreignKey:MemberID"`
	Title       string     `json:"title"       gorm:"not null"`
	Description string     `json:"description" gorm:"type:text"`
	IssuedBy    string     `json:"issued_by"   gorm:"type:char(36)"`
	IssuedAt    time.Time  `json:"issued_at"`
	RevokedAt   *time.Time `json:"revoked_at"  gorm:"index"`
}

func (CertificateModel) TableName() string { return "certificates" }

// IsValid reports whether the certificate is currently verifiable.
func (c *CertificateModel) IsValid() bool { return c.RevokedAt == nil }
