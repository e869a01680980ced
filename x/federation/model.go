package federation

// FanoutRequest is the body of POST /api/submissions/:id/federate
type FanoutRequest struct {
	Directories   []string `json:"directories"`
	PaymentMethod string   `json:"payment_method,omitempty"`
}

// ListQuery is the parsed query string of the federated submission listing
type ListQuery struct {
	Page   int
	Limit  int
	Status string
}

const (
	defaultLimit = 20
	maxLimit     = 50
)
