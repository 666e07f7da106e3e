package pagination

import (
	"strconv"

	"github.com/clubworks/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Page size bounds for list endpoints.
const (
	DefaultPage = 1
	DefaultSize = 20
	MaxSize     = 100
)

// Query is a parsed page/size pair, already clamped to the bounds above.
type Query struct {
	Page int
	Size int
}

// FromContext reads ?page and ?size off the request. Missing or malformed
// values fall back to the defaults; oversized requests are clamped to MaxSize.
func FromContext(c *gin.Context) Query {
	q := Query{
		Page: atoiOr(c.Query("page"), DefaultPage),
		Size: atoiOr(c.Query("size"), DefaultSize),
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Size < 1 {
		q.Size = DefaultSize
	}
	if q.Size > MaxSize {
		q.Size = MaxSize
	}
	return q
}

func (q Query) offset() int { return (q.Page - 1) * q.Size }

// Paginate runs the counted window query and fills dest with the requested
// page. The passed db must already carry the model, filters and ordering.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}
	if err := db.Offset(q.offset()).Limit(q.Size).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}

	pages := int((total + int64(q.Size) - 1) / int64(q.Size))
	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   pages,
		Size:        q.Size,
		HasNextPage: q.Page < pages,
	}, nil
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
