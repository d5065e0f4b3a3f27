package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/coursemarket-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewUserRepo(db, testutil.Logger(t))
	id := uuid.New()
	created, err := repo.Create(dbc, []*types.User{{
		ID:       id,
		Username: "userrepo-" + id.String()[:8],
		Email:    id.String() + "@example.com",
	}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Create: expected 1 user, got %d", len(created))
	}

	got, err := repo.GetByID(dbc, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.ID != id {
		t.Fatalf("GetByID: unexpected result: %+v", got)
	}
}

func TestProfileRepoMissingProfileIsNil(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx)
	repo := NewProfileRepo(db, testutil.Logger(t))

	p, err := repo.GetByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if p != nil {
		t.Fatalf("GetByUserID: want nil for user without profile")
	}
}

func TestProfileRepoUpdateStreak(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx)
	seeded := testutil.SeedProfile(t, ctx, tx, u.ID, 0, 0, nil)
	repo := NewProfileRepo(db, testutil.Logger(t))

	locked, err := repo.LockByUserID(dbc, u.ID)
	if err != nil || locked == nil || locked.ID != seeded.ID {
		t.Fatalf("LockByUserID: got=%+v err=%v", locked, err)
	}

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if err := repo.UpdateStreak(dbc, locked.ID, 4, 9, day); err != nil {
		t.Fatalf("UpdateStreak: %v", err)
	}
	got, err := repo.GetByUserID(dbc, u.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByUserID: got=%v err=%v", got, err)
	}
	if got.CurrentStreak != 4 || got.LongestStreak != 9 {
		t.Fatalf("streak: want=4/9 got=%d/%d", got.CurrentStreak, got.LongestStreak)
	}
	if got.LastActivityDate == nil {
		t.Fatalf("last_activity_date: want set")
	}
	last := time.Time(*got.LastActivityDate)
	if last.Year() != 2026 || last.Month() != time.March || last.Day() != 14 {
		t.Fatalf("last_activity_date: want=2026-03-14 got=%v", last)
	}
}

func TestAchievementRepoCreateIfAbsent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx)
	repo := NewAchievementRepo(db, testutil.Logger(t))

	created, err := repo.CreateIfAbsent(dbc, u.ID, "first_course")
	if err != nil || !created {
		t.Fatalf("CreateIfAbsent: created=%v err=%v", created, err)
	}
	created, err = repo.CreateIfAbsent(dbc, u.ID, "first_course")
	if err != nil {
		t.Fatalf("CreateIfAbsent again: %v", err)
	}
	if created {
		t.Fatalf("CreateIfAbsent again: want created=false")
	}
	rows, err := repo.ListByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("ListByUserID: %v", err)
	}
	if len(rows) != 1 || rows[0].Kind != "first_course" {
		t.Fatalf("ListByUserID: unexpected %+v", rows)
	}
}
