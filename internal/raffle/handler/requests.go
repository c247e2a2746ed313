package handler

import (
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
)

// EnterRequest is the body of POST /raffle/entries. The payment must equal
// the entrance fee times the batch size; the service enforces that, the
// transport only rejects shapes that cannot reach it.
type EnterRequest struct {
	Accounts []string `json:"accounts"`
	Payment  int64    `json:"payment"`

	parsedAccounts []domain.AccountID
}

// Validate parses the batch.
func (r *EnterRequest) Validate() error {
	if len(r.Accounts) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "accounts is required")
	}
	if r.Payment < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "payment must not be negative")
	}

	r.parsedAccounts = make([]domain.AccountID, 0, len(r.Accounts))
	for _, raw := range r.Accounts {
		account, err := domain.ParseAccountID(raw)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "accounts must contain valid account ids")
		}
		r.parsedAccounts = append(r.parsedAccounts, account)
	}
	return nil
}

// ParsedAccounts returns the validated batch.
func (r *EnterRequest) ParsedAccounts() []domain.AccountID { return r.parsedAccounts }

// ParsedPayment returns the attached payment.
func (r *EnterRequest) ParsedPayment() domain.Amount { return domain.Amount(r.Payment) }

// TokenRequest is the body of POST /auth/token.
type TokenRequest struct {
	AccountID string `json:"account_id"`

	parsedAccount domain.AccountID
}

// Validate parses the account id.
func (r *TokenRequest) Validate() error {
	account, err := domain.ParseAccountID(r.AccountID)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "account_id must be a valid uuid")
	}
	r.parsedAccount = account
	return nil
}

// ParsedAccount returns the validated account id.
func (r *TokenRequest) ParsedAccount() domain.AccountID { return r.parsedAccount }
