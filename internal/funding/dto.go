package funding

// DepositRequest captures user-provided data to fund the wallet.
type DepositRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Method string `json:"method" validate:"required,oneof=stripe mobile_money bank_transfer"`
}

// DepositResponse points the caller at the gateway checkout page.
type DepositResponse struct {
	Reference   string `json:"reference"`
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
	Amount      int64  `json:"amount"`
	Fee         int64  `json:"fee"`
}

// WithdrawRequest captures a withdrawal order.
type WithdrawRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// WithdrawResponse reports the settled withdrawal.
type WithdrawResponse struct {
	Reference string `json:"reference"`
	Balance   int64  `json:"balance"`
}

// BalanceResponse is the wallet read model.
type BalanceResponse struct {
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

// TransactionResponse is one history entry.
type TransactionResponse struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Amount      int64             `json:"amount"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	Reference   string            `json:"reference"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   string            `json:"created_at"`
}
