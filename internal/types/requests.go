package types

// Request bodies accepted by the HTTP layer.
//
// validate:"..." tags are checked by go-playground/validator before any
// core call. Amounts are deliberately untagged: a zero or negative amount
// is the core's ErrInvalidAmount, not a validation failure.

type RegisterRequest struct {
	Username string `json:"username"  validate:"required,alphanum,min=3,max=80"`
	Password string `json:"password"  validate:"required,min=6,max=72"`
	FullName string `json:"full_name" validate:"required,max=100"`
	Phone    string `json:"phone"     validate:"omitempty,max=20"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ComplaintRequest struct {
	Title       string `json:"title"       validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=2000"`
}

type PaymentRequest struct {
	Amount Money `json:"amount"`
}

type RentRequest struct {
	Month  string `json:"month" validate:"required"`
	Year   int    `json:"year"  validate:"required"`
	Amount Money  `json:"amount"`
}
