package models

// ProjectModel stores a club project shown in the portfolio.
type ProjectModel struct {
	Base
	Name         string                    `json:"name"        gorm:"uniqueIndex;not null"`
	PreviewURL   string                    `json:"preview_url"`
	DocURL       string                    `json:"doc_url"`
	RepoURL      string                    `json:"repo_url"`
	Images       StringArray               `json:"images"      gorm:"type:longtext"`
	Description  string                    `json:"description"`
	Avatar       string                    `json:"avatar"`
	Text         string                    `json:"text"        gorm:"type:text"` // markdown
	Contributors []ProjectContributorModel `json:"contributors,omitempty" gorm:"foreignKey:ProjectID"`
}

func (ProjectModel) TableName() string { return "projects" }

// ProjectContributorModel attributes a share of a project to a member.
// The Percent values of one project's contributors must sum to at most 100.
type ProjectContributorModel struct {
	Base
	ProjectID string     `json:"project_id" gorm:"type:char(36);index;not null;uniqueIndex:idx_project_member"`
	UserID    string     `json:"user_id"    gorm:"type:char(36);index;not null;uniqueIndex:idx_project_member"`
	User      *UserModel `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Role      string     `json:"role"`
	Percent   int        `json:"percent"    gorm:"default:0"`
}

func (ProjectContributorModel) TableName() string { return "project_contributors" }
