package billing

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPlanDuration(t *testing.T) {
	const day = 24 * time.Hour
	cases := []struct {
		amount float64
		want   time.Duration
		err    error
	}{
		{150, 90 * day, nil},
		{100, 90 * day, nil},
		{75, 30 * day, nil},
		{50, 30 * day, nil},
		{20, 7 * day, nil},
		{49.99, 7 * day, nil},
		{19.99, 0, ErrInsufficientAmount},
		{0, 0, ErrInsufficientAmount},
	}
	for _, tc := range cases {
		got, err := PlanDuration(tc.amount)
		if !errors.Is(err, tc.err) {
			t.Errorf("PlanDuration(%v) err = %v, want %v", tc.amount, err, tc.err)
		}
		if got != tc.want {
			t.Errorf("PlanDuration(%v) = %v, want %v", tc.amount, got, tc.want)
		}
	}
}

func fixedNow() time.Time { return time.Unix(1_700_000_000, 0) }

func seedTxn(t *testing.T, store Store, id string, amount float64) {
	t.Helper()
	err := store.AddTransaction(context.Background(), Transaction{
		ID: id, Amount: amount, Currency: "GHS", CreatedAt: fixedNow().Unix(),
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
}

func TestRedeem_NewUser(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	seedTxn(t, store, "TXN-1", 100)
	svc := NewServiceAt(store, fixedNow)

	u, err := svc.Redeem(ctx, "020 297 9378", "TXN-1", Profile{FullName: "Ama Mensah"})
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if u.Phone != "0202979378" {
		t.Errorf("phone = %q, want sanitized digits", u.Phone)
	}
	if want := fixedNow().Add(90 * 24 * time.Hour).Unix(); u.ExpiresAt != want {
		t.Errorf("expiry = %d, want %d (90 days)", u.ExpiresAt, want)
	}
	if u.Role != "student" || !u.Active || u.FullName != "Ama Mensah" {
		t.Errorf("user = %+v", u)
	}

	txn, err := store.GetTransaction(ctx, "TXN-1")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if !txn.Used || txn.UsedByPhone != "0202979378" {
		t.Errorf("txn not bound: %+v", txn)
	}
}

func TestRedeem_ReloginSameTxn(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	seedTxn(t, store, "TXN-1", 50)
	svc := NewServiceAt(store, fixedNow)

	first, err := svc.Redeem(ctx, "0202979378", "TXN-1", Profile{})
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	again, err := svc.Redeem(ctx, "0202979378", "TXN-1", Profile{Email: "ama@example.com"})
	if err != nil {
		t.Fatalf("re-login: %v", err)
	}
	if again.ExpiresAt != first.ExpiresAt {
		t.Error("re-login must not extend the subscription")
	}
	if again.Email != "ama@example.com" {
		t.Error("re-login should refresh profile fields")
	}
}

func TestRedeem_TxnBoundToOtherPhone(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	seedTxn(t, store, "TXN-1", 50)
	svc := NewServiceAt(store, fixedNow)

	if _, err := svc.Redeem(ctx, "0202979378", "TXN-1", Profile{}); err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if _, err := svc.Redeem(ctx, "0241112222", "TXN-1", Profile{}); !errors.Is(err, ErrTxnUsed) {
		t.Errorf("err = %v, want ErrTxnUsed", err)
	}
}

func TestRedeem_ExpiredRelogin(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	seedTxn(t, store, "TXN-1", 20)
	svc := NewServiceAt(store, fixedNow)
	if _, err := svc.Redeem(ctx, "0202979378", "TXN-1", Profile{}); err != nil {
		t.Fatalf("Redeem: %v", err)
	}

	// Same txn, same phone, but 8 days later the 7-day plan is over.
	later := NewServiceAt(store, func() time.Time { return fixedNow().Add(8 * 24 * time.Hour) })
	if _, err := later.Redeem(ctx, "0202979378", "TXN-1", Profile{}); !errors.Is(err, ErrAccessExpired) {
		t.Errorf("err = %v, want ErrAccessExpired", err)
	}
}

func TestRedeem_SecondTxnExtendsLiveSubscription(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	seedTxn(t, store, "TXN-1", 50)
	seedTxn(t, store, "TXN-2", 50)
	svc := NewServiceAt(store, fixedNow)

	first, err := svc.Redeem(ctx, "0202979378", "TXN-1", Profile{})
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	second, err := svc.Redeem(ctx, "0202979378", "TXN-2", Profile{})
	if err != nil {
		t.Fatalf("second Redeem: %v", err)
	}
	if want := time.Unix(first.ExpiresAt, 0).Add(30 * 24 * time.Hour).Unix(); second.ExpiresAt != want {
		t.Errorf("expiry = %d, want stacked %d", second.ExpiresAt, want)
	}
}

func TestRedeem_InsufficientAmount(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	seedTxn(t, store, "TXN-1", 10)
	svc := NewServiceAt(store, fixedNow)
	if _, err := svc.Redeem(ctx, "0202979378", "TXN-1", Profile{}); !errors.Is(err, ErrInsufficientAmount) {
		t.Errorf("err = %v, want ErrInsufficientAmount", err)
	}
}

func TestRedeem_UnknownTxn(t *testing.T) {
	svc := NewServiceAt(NewInMemoryStore(), fixedNow)
	if _, err := svc.Redeem(context.Background(), "0202979378", "NOPE", Profile{}); !errors.Is(err, ErrTxnNotFound) {
		t.Errorf("err = %v, want ErrTxnNotFound", err)
	}
}

func TestExtendAndDeactivate(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	seedTxn(t, store, "TXN-1", 20)
	svc := NewServiceAt(store, fixedNow)
	if _, err := svc.Redeem(ctx, "0202979378", "TXN-1", Profile{}); err != nil {
		t.Fatalf("Redeem: %v", err)
	}

	u, err := svc.Extend(ctx, "0202979378", 30)
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if want := fixedNow().Add(37 * 24 * time.Hour).Unix(); u.ExpiresAt != want {
		t.Errorf("expiry = %d, want %d (7 + 30 days)", u.ExpiresAt, want)
	}

	if err := svc.Deactivate(ctx, "0202979378"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	got, err := store.GetUser(ctx, "0202979378")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Active {
		t.Error("user still active after deactivation")
	}
}

func TestSanitizers(t *testing.T) {
	if _, err := SanitizePhone("123"); err == nil {
		t.Error("short phone should be rejected")
	}
	got, err := SanitizePhone("+233 (020) 297-9378")
	if err != nil || got != "+2330202979378" {
		t.Errorf("SanitizePhone = %q, %v", got, err)
	}
	if got := SanitizeText("<b>Ama</b> Mensah", 200); got != "Ama Mensah" {
		t.Errorf("SanitizeText = %q", got)
	}
	if got := SanitizeText("abcdef", 3); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}

func TestRedeem_DeactivatedAccount(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	seedTxn(t, store, "TXN-1", 100)
	seedTxn(t, store, "TXN-2", 100)
	svc := NewServiceAt(store, fixedNow)

	if _, err := svc.Redeem(ctx, "0202979378", "TXN-1", Profile{}); err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if err := svc.Deactivate(ctx, "0202979378"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	// Re-login over the already-bound transaction is rejected.
	if _, err := svc.Redeem(ctx, "0202979378", "TXN-1", Profile{}); !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("relogin err = %v, want ErrAccountDisabled", err)
	}
	// So is redeeming a fresh transaction: a disabled account does not
	// buy its way back in.
	if _, err := svc.Redeem(ctx, "0202979378", "TXN-2", Profile{}); !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("fresh txn err = %v, want ErrAccountDisabled", err)
	}
	txn, err := store.GetTransaction(ctx, "TXN-2")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if txn.Used {
		t.Errorf("rejected redemption consumed the transaction: %+v", txn)
	}

	// Admin Extend reactivates.
	if _, err := svc.Extend(ctx, "0202979378", 7); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if _, err := svc.Redeem(ctx, "0202979378", "TXN-1", Profile{}); err != nil {
		t.Errorf("relogin after reactivation: %v", err)
	}
}

type upsertFailStore struct {
	Store
}

func (s upsertFailStore) UpsertUser(context.Context, User) error {
	return errors.New("disk full")
}

func TestRedeem_FailedGrantKeepsTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	seedTxn(t, store, "TXN-1", 100)
	svc := NewServiceAt(upsertFailStore{store}, fixedNow)

	if _, err := svc.Redeem(ctx, "0202979378", "TXN-1", Profile{}); err == nil {
		t.Fatal("Redeem succeeded despite failing user write")
	}
	txn, err := store.GetTransaction(ctx, "TXN-1")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if txn.Used {
		t.Errorf("failed grant burned the transaction: %+v", txn)
	}

	// The same transaction redeems cleanly once the store recovers.
	ok := NewServiceAt(store, fixedNow)
	if _, err := ok.Redeem(ctx, "0202979378", "TXN-1", Profile{}); err != nil {
		t.Errorf("retry after store recovery: %v", err)
	}
}
