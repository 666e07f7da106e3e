package models

// Block types form a closed tagged union.
const (
	BlockTypeText    = "text"
	BlockTypeQuote   = "quote"
	BlockTypeImage   = "image"
	BlockTypeYoutube = "youtube"
)

// IsValidBlockType reports whether t is a known block type.
func IsValidBlockType(t string) bool {
	switch t {
	case BlockTypeText, BlockTypeQuote, BlockTypeImage, BlockTypeYoutube:
		return true
	}
	return false
}

// BlockContent is the type-dependent payload of a block. Only the fields for
// the block's type are meaningful; the rest stay zero and are omitted from JSON.
type BlockContent struct {
	// text
	HTML      string `json:"html,omitempty"`
	WordCount int    `json:"word_count,omitempty"`
	// quote
	Quote  string `json:"quote,omitempty"`
	Source string `json:"source,omitempty"`
	// image
	ImageID string `json:"image_id,omitempty"`
	Caption string `json:"caption,omitempty"`
	// youtube
	YoutubeURL string `json:"youtube_url,omitempty"`
	VideoID    string `json:"video_id,omitempty"`
}

// PostBlockModel is one ordered content unit of a post.
//
// OrderIndex values are caller-supplied; the store orders by this field on read
// and does not guarantee uniqueness or contiguity among siblings.
type PostBlockModel struct {
	Base
	PostID     string       `json:"post_id"     gorm:"type:char(36);index;not null"`
	Type       string       `json:"type"        gorm:"not null"`
	Content    BlockContent `json:"content"     gorm:"type:longtext;serializer:json"`
	OrderIndex int          `json:"order_index" gorm:"index;not null"`
}

func (PostBlockModel) TableName() string { return "post_blocks" }
