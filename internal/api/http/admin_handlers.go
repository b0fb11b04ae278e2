package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/apex-eduai/examvault/internal/billing"
	"github.com/apex-eduai/examvault/internal/eventlog"
	"github.com/apex-eduai/examvault/internal/exam"
)

// AddTransactionHandler registers a prepaid payment reference so a user
// can later redeem it at login.
func AddTransactionHandler(store billing.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TxnID    string  `json:"txn_id"`
			Amount   float64 `json:"amount"`
			Currency string  `json:"currency"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.TxnID == "" || req.Amount <= 0 {
			http.Error(w, "txn_id and positive amount required", 400)
			return
		}
		if req.Currency == "" {
			req.Currency = "ETB"
		}
		t := billing.Transaction{
			ID:        billing.SanitizeText(req.TxnID, 64),
			Amount:    req.Amount,
			Currency:  req.Currency,
			CreatedAt: time.Now().Unix(),
		}
		if err := store.AddTransaction(r.Context(), t); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(t)
	}
}

func ListTransactionsHandler(store billing.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts, err := store.ListTransactions(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(ts)
	}
}

func ListSubscribersHandler(store billing.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		us, err := store.ListUsers(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(us)
	}
}

// ExtendUserHandler grants extra access days to a subscriber.
func ExtendUserHandler(svc *billing.Service, events exam.EventSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Phone string `json:"phone_number"`
			Days  int    `json:"days"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.Days <= 0 {
			http.Error(w, "positive days required", 400)
			return
		}
		u, err := svc.Extend(r.Context(), req.Phone, req.Days)
		if err != nil {
			if errors.Is(err, billing.ErrUserNotFound) {
				http.Error(w, err.Error(), 404)
				return
			}
			http.Error(w, err.Error(), 400)
			return
		}
		if events != nil {
			_ = events.Append(r.Context(), eventlog.TypeUserExtended, u.Phone, map[string]any{
				"days": req.Days, "expires_at": u.ExpiresAt,
			})
		}
		_ = json.NewEncoder(w).Encode(u)
	}
}

func DeactivateUserHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Phone string `json:"phone_number"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if err := svc.Deactivate(r.Context(), req.Phone); err != nil {
			if errors.Is(err, billing.ErrUserNotFound) {
				http.Error(w, err.Error(), 404)
				return
			}
			http.Error(w, err.Error(), 400)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}
}
