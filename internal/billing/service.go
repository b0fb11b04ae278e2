package billing

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Profile carries the optional fields a user may attach at login.
type Profile struct {
	FullName    string
	Email       string
	Institution string
}

// Service implements the redeem/extend subscription rules around a Store.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// NewServiceAt injects the clock, for tests.
func NewServiceAt(store Store, now func() time.Time) *Service {
	return &Service{store: store, now: now}
}

// Redeem is the login/registration flow: a phone number plus a
// transaction ID. A fresh transaction grants (or extends) a subscription
// for the plan period its amount maps to and is then bound to that phone.
// A transaction already used by the same phone is a plain re-login while
// the subscription is live; used by any other phone it is rejected.
func (s *Service) Redeem(ctx context.Context, phone, txnID string, p Profile) (User, error) {
	phone, err := SanitizePhone(phone)
	if err != nil {
		return User{}, err
	}
	txnID = strings.TrimSpace(txnID)
	if txnID == "" {
		return User{}, fmt.Errorf("billing: transaction id is required")
	}

	txn, err := s.store.GetTransaction(ctx, txnID)
	if err != nil {
		return User{}, err
	}
	now := s.now()

	if txn.Used {
		if txn.UsedByPhone != phone {
			return User{}, ErrTxnUsed
		}
		u, err := s.store.GetUser(ctx, phone)
		if err != nil {
			return User{}, err
		}
		if !u.Active {
			return User{}, ErrAccountDisabled
		}
		if u.ExpiresAt <= now.Unix() {
			return User{}, ErrAccessExpired
		}
		applyProfile(&u, p)
		if err := s.store.UpsertUser(ctx, u); err != nil {
			return User{}, err
		}
		return u, nil
	}

	period, err := PlanDuration(txn.Amount)
	if err != nil {
		return User{}, err
	}

	u, err := s.store.GetUser(ctx, phone)
	switch {
	case err == nil:
		if !u.Active {
			return User{}, ErrAccountDisabled
		}
		if u.ExpiresAt > now.Unix() {
			u.ExpiresAt = time.Unix(u.ExpiresAt, 0).Add(period).Unix()
		} else {
			u.ExpiresAt = now.Add(period).Unix()
		}
	case err == ErrUserNotFound:
		u = User{
			Phone:     phone,
			Role:      "student",
			ExpiresAt: now.Add(period).Unix(),
			CreatedAt: now.Unix(),
		}
	default:
		return User{}, err
	}
	u.TxnID = txnID
	u.Active = true
	applyProfile(&u, p)

	// The transaction is marked used only once the user write succeeded.
	if err := s.store.UpsertUser(ctx, u); err != nil {
		return User{}, err
	}
	if err := s.store.MarkTransactionUsed(ctx, txnID, phone, now.Unix()); err != nil {
		return User{}, err
	}
	return u, nil
}

// Extend lengthens a user's subscription by the given number of days,
// from the current expiry when still live, otherwise from now.
func (s *Service) Extend(ctx context.Context, phone string, days int) (User, error) {
	u, err := s.store.GetUser(ctx, phone)
	if err != nil {
		return User{}, err
	}
	now := s.now()
	period := time.Duration(days) * 24 * time.Hour
	if u.ExpiresAt > now.Unix() {
		u.ExpiresAt = time.Unix(u.ExpiresAt, 0).Add(period).Unix()
	} else {
		u.ExpiresAt = now.Add(period).Unix()
	}
	u.Active = true
	if err := s.store.UpsertUser(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Deactivate disables an account without deleting its history.
func (s *Service) Deactivate(ctx context.Context, phone string) error {
	u, err := s.store.GetUser(ctx, phone)
	if err != nil {
		return err
	}
	u.Active = false
	return s.store.UpsertUser(ctx, u)
}

func applyProfile(u *User, p Profile) {
	if v := SanitizeText(p.FullName, 200); v != "" {
		u.FullName = v
	}
	if v := SanitizeText(p.Email, 320); v != "" {
		u.Email = v
	}
	if v := SanitizeText(p.Institution, 200); v != "" {
		u.Institution = v
	}
}

var (
	nonPhoneChars = regexp.MustCompile(`[^\d+]`)
	htmlTags      = regexp.MustCompile(`<[^>]+>`)
)

// SanitizePhone strips everything but digits (and a leading +) and
// bounds the length.
func SanitizePhone(phone string) (string, error) {
	cleaned := nonPhoneChars.ReplaceAllString(strings.TrimSpace(phone), "")
	if len(cleaned) < 10 || len(cleaned) > 15 {
		return "", fmt.Errorf("billing: invalid phone number format")
	}
	return cleaned, nil
}

// SanitizeText drops HTML tags and truncates.
func SanitizeText(v string, maxLen int) string {
	cleaned := htmlTags.ReplaceAllString(strings.TrimSpace(v), "")
	if len(cleaned) > maxLen {
		cleaned = cleaned[:maxLen]
	}
	return cleaned
}
