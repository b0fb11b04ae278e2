package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	auth "github.com/apex-eduai/examvault/internal/auth/middleware"
	"github.com/apex-eduai/examvault/internal/billing"

	"golang.org/x/crypto/bcrypt"
)

type loginResponse struct {
	Token     string `json:"token"`
	Phone     string `json:"phone_number"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"expires_at"`
}

// LoginHandler redeems a payment transaction for timed access and, on
// success, issues a JWT whose lifetime is capped by the subscription.
func LoginHandler(svc *billing.Service, authSvc *auth.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Phone       string `json:"phone_number"`
			TxnID       string `json:"txn_id"`
			FullName    string `json:"full_name"`
			Email       string `json:"email"`
			Institution string `json:"institution"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		u, err := svc.Redeem(r.Context(), req.Phone, req.TxnID, billing.Profile{
			FullName:    req.FullName,
			Email:       req.Email,
			Institution: req.Institution,
		})
		if err != nil {
			http.Error(w, err.Error(), billingStatus(err))
			return
		}
		ttl := time.Until(time.Unix(u.ExpiresAt, 0))
		if ttl <= 0 {
			http.Error(w, "subscription expired", 403)
			return
		}
		if ttl > 24*time.Hour {
			ttl = 24 * time.Hour
		}
		tok, err := authSvc.IssueJWT(u.Phone, u.Role, ttl)
		if err != nil {
			http.Error(w, "issue token", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(loginResponse{
			Token:     tok,
			Phone:     u.Phone,
			Role:      u.Role,
			ExpiresAt: u.ExpiresAt,
		})
	}
}

// AdminLoginHandler checks the single configured admin credential
// (bcrypt hash from env) and issues a short-lived admin JWT.
func AdminLoginHandler(adminUser, adminPassHash string, authSvc *auth.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.Username != adminUser ||
			bcrypt.CompareHashAndPassword([]byte(adminPassHash), []byte(req.Password)) != nil {
			http.Error(w, "invalid credentials", 401)
			return
		}
		tok, err := authSvc.IssueJWT(req.Username, "admin", 12*time.Hour)
		if err != nil {
			http.Error(w, "issue token", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": tok, "role": "admin"})
	}
}

func billingStatus(err error) int {
	switch {
	case errors.Is(err, billing.ErrTxnNotFound):
		return 401
	case errors.Is(err, billing.ErrTxnUsed):
		return 409
	case errors.Is(err, billing.ErrInsufficientAmount):
		return 402
	case errors.Is(err, billing.ErrAccessExpired), errors.Is(err, billing.ErrAccountDisabled):
		return 403
	default:
		return 400
	}
}
