package billing_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/apex-eduai/examvault/internal/billing"
	"github.com/apex-eduai/examvault/internal/db"
)

func openTestStore(t *testing.T) *billing.SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return billing.NewSQLStore(dbh)
}

func TestSQLStoreUsers(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	u := billing.User{
		Phone:     "0911000000",
		FullName:  "Abebe K",
		Role:      "student",
		TxnID:     "TX1",
		ExpiresAt: 1000,
		Active:    true,
		CreatedAt: 100,
	}
	if err := store.UpsertUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetUser(ctx, "0911000000")
	if err != nil {
		t.Fatal(err)
	}
	if got.FullName != "Abebe K" || !got.Active || got.ExpiresAt != 1000 {
		t.Fatalf("user: %+v", got)
	}

	u.Active = false
	u.ExpiresAt = 2000
	if err := store.UpsertUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	got, err = store.GetUser(ctx, "0911000000")
	if err != nil {
		t.Fatal(err)
	}
	if got.Active || got.ExpiresAt != 2000 {
		t.Fatalf("upsert did not update: %+v", got)
	}

	if _, err := store.GetUser(ctx, "0999999999"); err != billing.ErrUserNotFound {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}

	us, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(us) != 1 {
		t.Fatalf("list: %+v", us)
	}
}

func TestSQLStoreTransactions(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	txn := billing.Transaction{ID: "TX1", Amount: 120, Currency: "ETB", CreatedAt: 100}
	if err := store.AddTransaction(ctx, txn); err != nil {
		t.Fatal(err)
	}
	// Re-adding the same id is a no-op, not an error.
	if err := store.AddTransaction(ctx, txn); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetTransaction(ctx, "TX1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Used || got.UsedAt != 0 {
		t.Fatalf("fresh txn: %+v", got)
	}

	if err := store.MarkTransactionUsed(ctx, "TX1", "0911000000", 500); err != nil {
		t.Fatal(err)
	}
	got, err = store.GetTransaction(ctx, "TX1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Used || got.UsedByPhone != "0911000000" || got.UsedAt != 500 {
		t.Fatalf("used txn: %+v", got)
	}

	if err := store.MarkTransactionUsed(ctx, "NOPE", "0911000000", 500); err != billing.ErrTxnNotFound {
		t.Fatalf("want ErrTxnNotFound, got %v", err)
	}
	if _, err := store.GetTransaction(ctx, "NOPE"); err != billing.ErrTxnNotFound {
		t.Fatalf("want ErrTxnNotFound, got %v", err)
	}

	ts, err := store.ListTransactions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ts) != 1 || ts[0].ID != "TX1" {
		t.Fatalf("list: %+v", ts)
	}
}
