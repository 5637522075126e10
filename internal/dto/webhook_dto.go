package dto

// PaymentWebhook is the payload the payment provider posts when a charge changes state.
type PaymentWebhook struct {
	ID   string       `json:"id"`
	Type string       `json:"type"`
	Data PaymentEvent `json:"data"`
}

type PaymentEvent struct {
	OrderNumber string `json:"order_number"`
	PaymentRef  string `json:"payment_ref"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Reason      string `json:"reason,omitempty"`
}
