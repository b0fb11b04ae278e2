package billing

// User is an account keyed by phone number.
type User struct {
	Phone       string `json:"phone_number"`
	FullName    string `json:"full_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Institution string `json:"institution,omitempty"`
	Role        string `json:"role"` // student|admin
	TxnID       string `json:"txn_id,omitempty"`
	ExpiresAt   int64  `json:"expires_at"` // unix seconds; 0 = never granted
	Active      bool   `json:"is_active"`
	CreatedAt   int64  `json:"created_at"`
}

// Transaction is one prepaid payment reference. A transaction is bound to
// the first phone number that redeems it.
type Transaction struct {
	ID          string  `json:"txn_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Used        bool    `json:"is_used"`
	UsedByPhone string  `json:"used_by_phone,omitempty"`
	UsedAt      int64   `json:"used_at,omitempty"`
	CreatedAt   int64   `json:"created_at"`
}
