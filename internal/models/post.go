package models

// Post categories form a closed enum; there is no category table.
const (
	CategoryAnnouncement = "announcement"
	CategoryTechBlog     = "techblog"
	CategoryEvent        = "event"
	CategoryReview       = "review"
)

// PostCategories lists every valid category value.
var PostCategories = []string{
	CategoryAnnouncement,
	CategoryTechBlog,
	CategoryEvent,
	CategoryReview,
}

// IsValidCategory reports whether c is a known post category.
func IsValidCategory(c string) bool {
	for _, v := range PostCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Post lifecycle states.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusArchived  = "archived"
)

// PostModel is a blog/news article. Its body lives in ordered PostBlockModel rows.
type PostModel struct {
	Base
	Title        string      `json:"title"         gorm:"not null"`
	Slug         string      `json:"slug"          gorm:"uniqueIndex;not null"`
	Summary      string      `json:"summary"       gorm:"type:text"`
	SummaryIntl  string      `json:"summary_intl"  gorm:"type:text"` // localized summary
	Category     string      `json:"category"      gorm:"index;not null"`
	Status       string      `json:"status"        gorm:"default:draft;index"`
	AuthorID     string      `json:"author_id"     gorm:"type:char(36);index;not null"`
	Author       *UserModel  `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Cover        string      `json:"cover"`
	Tags         StringArray `json:"tags"          gorm:"type:longtext"`
	ReadCount    int         `json:"read"          gorm:"column:read_count;default:0"`
	UpvoteCount  int         `json:"upvotes"       gorm:"column:upvote_count;default:0"`
	RelatedIDs   StringArray `json:"related_ids"   gorm:"type:longtext"` // at most two post ids
}

func (PostModel) TableName() string { return "posts" }

// PostUpvoteModel records one upvote per (post, voter key), where the key is a
// user id or a client IP for anonymous voters.
type PostUpvoteModel struct {
	Base
	PostID   string `json:"post_id"   gorm:"type:char(36);index;not null;uniqueIndex:idx_post_voter"`
	VoterKey string `json:"voter_key" gorm:"index;not null;uniqueIndex:idx_post_voter"`
}

func (PostUpvoteModel) TableName() string { return "post_upvotes" }
