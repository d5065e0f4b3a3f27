package aggregates_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursemarket-backend/internal/data/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
)

func TestGormTxRunnerCommitsAndRollsBack(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	runner := aggregates.NewGormTxRunner(db)

	kept := uuid.New()
	err := runner.InTx(ctx, func(dbc dbctx.Context) error {
		return dbc.Tx.Create(&types.User{ID: kept, Username: "kept-" + kept.String()[:8], Email: kept.String() + "@example.com"}).Error
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	dropped := uuid.New()
	boom := errors.New("boom")
	err = runner.InTx(ctx, func(dbc dbctx.Context) error {
		if err := dbc.Tx.Create(&types.User{ID: dropped, Username: "drop-" + dropped.String()[:8], Email: dropped.String() + "@example.com"}).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("rollback err: want=%v got=%v", boom, err)
	}

	var n int64
	db.Model(&types.User{}).Where("id IN ?", []uuid.UUID{kept, dropped}).Count(&n)
	if n != 1 {
		t.Fatalf("users after commit+rollback: want=1 got=%d", n)
	}
}

func TestGormTxRunnerSkipsCanceledContext(t *testing.T) {
	db := testutil.DB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := aggregates.NewGormTxRunnerWithOptions(db, &sql.TxOptions{}).InTx(ctx, func(dbctx.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err: want=%v got=%v", context.Canceled, err)
	}
	if called {
		t.Fatalf("fn ran on a canceled context")
	}
}

func TestGormTxRunnerNilDB(t *testing.T) {
	err := aggregates.NewGormTxRunner(nil).InTx(context.Background(), func(dbctx.Context) error { return nil })
	var agg *domainagg.Error
	if !errors.As(err, &agg) || agg.Code != domainagg.CodeInternal {
		t.Fatalf("nil db: want=%s got=%v", domainagg.CodeInternal, err)
	}
}
