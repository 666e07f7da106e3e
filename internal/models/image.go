package models

// ImageModel is the metadata record behind image-type block payloads and
// project/member pictures. The binary lives in S3 or the local static dir.
type ImageModel struct {
	Base
	ObjectKey  string `json:"object_key" gorm:"uniqueIndex;not null"`
	URL        string `json:"url"        gorm:"not null"`
	Mime       string `json:"mime"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SizeBytes  int64  `json:"size_bytes"`
	UploaderID string `json:"uploader_id" gorm:"type:char(36);index"`
}

func (ImageModel) TableName() string { return "images" }
