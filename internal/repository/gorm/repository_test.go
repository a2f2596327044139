package gormrepository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/peterldowns/testy/check"
	"gorm.io/gorm"

	"adstream/internal/repository"
	"adstream/internal/testutil"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		conflict bool
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("boom")},
		{name: "duplicate key", err: gorm.ErrDuplicatedKey, conflict: true},
		{name: "serialization", err: &pgconn.PgError{Code: "40001"}, conflict: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, conflict: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, conflict: true},
		{name: "other pg", err: &pgconn.PgError{Code: "42P01"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.err)
			check.Equal(t, tc.conflict, errors.Is(got, repository.ErrWriteConflict))
			if tc.err != nil {
				check.True(t, errors.Is(got, tc.err))
			}
		})
	}
}

func TestMarkAdSlotSoldTx_CompareAndSwap(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	store := New(gdb)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "ad_slots" SET .+ WHERE id = \$\d+ AND status = \$\d+`).
		WithArgs("SOLD", now, "slot-1", "AVAILABLE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var sold bool
	err := store.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		sold, err = store.MarkAdSlotSoldTx(ctx, tx, "slot-1", now)
		return err
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !sold {
		t.Fatalf("sold=false want=true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkAdSlotSoldTx_AlreadySold(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	store := New(gdb)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "ad_slots" SET .+ WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var sold bool
	err := store.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		sold, err = store.MarkAdSlotSoldTx(ctx, tx, "slot-1", time.Now().UTC())
		return err
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if sold {
		t.Fatalf("sold=true want=false")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestOutbidPendingBidsTx_ScopedBySlot(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	store := New(gdb)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bids" SET .+ WHERE slot_id = \$\d+ AND status = \$\d+ AND id <> \$\d+`).
		WithArgs("OUTBID", now, "slot-1", "PENDING", "bid-a").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	var n int64
	err := store.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		n, err = store.OutbidPendingBidsTx(ctx, tx, "slot-1", "bid-a", now)
		return err
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if n != 3 {
		t.Fatalf("outbid=%d want=3", n)
	}
}

func TestInSettlementTx_SerializationFailureIsConflict(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	store := New(gdb, WithSerializableSettlement(true))
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "ad_slots"`).
		WillReturnError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})
	mock.ExpectRollback()

	err := store.InSettlementTx(ctx, func(tx *gorm.DB) error {
		_, err := store.MarkAdSlotSoldTx(ctx, tx, "slot-1", time.Now().UTC())
		return err
	})
	if !errors.Is(err, repository.ErrWriteConflict) {
		t.Fatalf("err=%v want write conflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetBidByID_RetriesOnceOnStoreFailure(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	store := New(gdb)

	mock.ExpectQuery(`SELECT \* FROM "bids" WHERE id = \$1`).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectQuery(`SELECT \* FROM "bids" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "brand_id", "slot_id", "status"}).
			AddRow("bid-1", "brand-1", "slot-1", "PENDING"))

	bid, err := store.GetBidByID(context.Background(), "bid-1")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if bid == nil || bid.ID != "bid-1" || bid.Status != "PENDING" {
		t.Fatalf("bid=%+v", bid)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetBidByID_NotFoundIsNotRetried(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	store := New(gdb)

	mock.ExpectQuery(`SELECT \* FROM "bids" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	bid, err := store.GetBidByID(context.Background(), "missing")
	if err != nil || bid != nil {
		t.Fatalf("bid=%v err=%v want nil,nil", bid, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetBidByID_GivesUpAfterSecondFailure(t *testing.T) {
	gdb, mock := testutil.NewMockDB(t)
	store := New(gdb)

	mock.ExpectQuery(`SELECT \* FROM "bids"`).WillReturnError(errors.New("down"))
	mock.ExpectQuery(`SELECT \* FROM "bids"`).WillReturnError(errors.New("still down"))

	_, err := store.GetBidByID(context.Background(), "bid-1")
	if err == nil || err.Error() != "still down" {
		t.Fatalf("err=%v", err)
	}
}

func TestApplyOrder_RejectsUnknownColumns(t *testing.T) {
	check.True(t, contains(bidOrderColumns, "amount"))
	check.False(t, contains(bidOrderColumns, "amount; DROP TABLE bids"))
	check.Equal(t, []string{"a", "b"}, cleanStrings([]string{" a", "", "b", "a"}))
}
