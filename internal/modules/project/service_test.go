package project

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/clubworks/core/internal/models"
)

func setupProjectTest(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:project_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.UserModel{},
		&models.ProjectModel{},
		&models.ProjectContributorModel{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db), db
}

func seedUser(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	u := models.UserModel{
		Base:     models.Base{ID: id},
		Username: "u_" + id,
		Name:     "User " + id,
		Password: "x",
		Role:     models.RoleMember,
		IsActive: true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestCreateProjectWithShares(t *testing.T) {
	svc, db := setupProjectTest(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	p, err := svc.Create(context.Background(), CreateProjectDTO{
		Name: "club-site",
		Contributors: []ContributorDTO{
			{UserID: "alice", Role: "lead", Percent: 60},
			{UserID: "bob", Role: "frontend", Percent: 40},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(p.Contributors) != 2 {
		t.Fatalf("want 2 contributors, got %d", len(p.Contributors))
	}
	if p.Contributors[0].User == nil {
		t.Fatal("contributor user not preloaded")
	}
}

func TestSharesMustNotExceedHundred(t *testing.T) {
	svc, db := setupProjectTest(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProjectDTO{
		Name: "overflow",
		Contributors: []ContributorDTO{
			{UserID: "alice", Percent: 70},
			{UserID: "bob", Percent: 31},
		},
	})
	if !errors.Is(err, ErrContributionOverflow) {
		t.Fatalf("101 total should overflow, got %v", err)
	}

	p, err := svc.Create(ctx, CreateProjectDTO{
		Name: "exact",
		Contributors: []ContributorDTO{
			{UserID: "alice", Percent: 70},
			{UserID: "bob", Percent: 30},
		},
	})
	if err != nil {
		t.Fatalf("exactly 100 should pass: %v", err)
	}
	if len(p.Contributors) != 2 {
		t.Fatalf("contributors not stored: %d", len(p.Contributors))
	}
}

func TestDuplicateContributorRejected(t *testing.T) {
	svc, db := setupProjectTest(t)
	seedUser(t, db, "alice")

	_, err := svc.Create(context.Background(), CreateProjectDTO{
		Name: "dup",
		Contributors: []ContributorDTO{
			{UserID: "alice", Percent: 30},
			{UserID: "alice", Percent: 30},
		},
	})
	if !errors.Is(err, ErrDuplicateContributor) {
		t.Fatalf("want ErrDuplicateContributor, got %v", err)
	}
}

func TestContributorMustExist(t *testing.T) {
	svc, _ := setupProjectTest(t)

	_, err := svc.Create(context.Background(), CreateProjectDTO{
		Name:         "ghost-crew",
		Contributors: []ContributorDTO{{UserID: "nobody", Percent: 10}},
	})
	if !errors.Is(err, ErrContributorNotFound) {
		t.Fatalf("want ErrContributorNotFound, got %v", err)
	}
}

func TestSetContributorsReflow(t *testing.T) {
	svc, db := setupProjectTest(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")
	seedUser(t, db, "carol")
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProjectDTO{
		Name: "reflow",
		Contributors: []ContributorDTO{
			{UserID: "alice", Percent: 60},
			{UserID: "bob", Percent: 40},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The replacement list is validated as a whole, so alice keeping 60 while
	// carol takes 40 works even though bob held those shares before.
	p, err = svc.SetContributors(ctx, p.ID, []ContributorDTO{
		{UserID: "alice", Percent: 60},
		{UserID: "carol", Percent: 40},
	})
	if err != nil {
		t.Fatalf("reflow: %v", err)
	}
	if len(p.Contributors) != 2 {
		t.Fatalf("want 2 contributors after reflow, got %d", len(p.Contributors))
	}
	for _, c := range p.Contributors {
		if c.UserID == "bob" {
			t.Fatal("replaced contributor still present")
		}
	}

	_, err = svc.SetContributors(ctx, p.ID, []ContributorDTO{
		{UserID: "alice", Percent: 101},
	})
	if !errors.Is(err, ErrInvalidPercent) {
		t.Fatalf("single share above 100, got %v", err)
	}
}

func TestProjectNameUnique(t *testing.T) {
	svc, _ := setupProjectTest(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateProjectDTO{Name: "taken"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateProjectDTO{Name: "taken"}); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("want ErrNameTaken, got %v", err)
	}
}

func TestForMemberPortfolio(t *testing.T) {
	svc, db := setupProjectTest(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateProjectDTO{
		Name:         "p1",
		Contributors: []ContributorDTO{{UserID: "alice", Percent: 100}},
	}); err != nil {
		t.Fatalf("create p1: %v", err)
	}
	if _, err := svc.Create(ctx, CreateProjectDTO{
		Name:         "p2",
		Contributors: []ContributorDTO{{UserID: "bob", Percent: 100}},
	}); err != nil {
		t.Fatalf("create p2: %v", err)
	}

	mine, err := svc.ForMember(ctx, "alice")
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "p1" {
		t.Fatalf("portfolio wrong: %+v", mine)
	}

	none, err := svc.ForMember(ctx, "nobody")
	if err != nil || len(none) != 0 {
		t.Fatalf("empty portfolio expected, got %v %v", none, err)
	}
}

func TestDeleteProjectRemovesShares(t *testing.T) {
	svc, db := setupProjectTest(t)
	seedUser(t, db, "alice")
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProjectDTO{
		Name:         "doomed",
		Contributors: []ContributorDTO{{UserID: "alice", Percent: 100}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var shares int64
	db.Model(&models.ProjectContributorModel{}).Where("project_id = ?", p.ID).Count(&shares)
	if shares != 0 {
		t.Fatalf("contributor rows left behind: %d", shares)
	}
	if _, err := svc.Get(ctx, p.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("want ErrProjectNotFound, got %v", err)
	}
}
