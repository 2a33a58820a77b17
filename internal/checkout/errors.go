package checkout

import "fmt"

// Stable error codes surfaced in API bodies so callers can branch without
// parsing free text.
const (
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeEmptyCart           = "EMPTY_CART"
	CodeDeliveryUnavailable = "DELIVERY_UNAVAILABLE"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeStockUpdateFailed   = "STOCK_UPDATE_FAILED"
	CodePaymentGateway      = "PAYMENT_GATEWAY_ERROR"
	CodeSignatureMismatch   = "SIGNATURE_MISMATCH"
	CodePersistence         = "PERSISTENCE_ERROR"
)

// Error is a pipeline failure carrying a stable code. Handlers map the code
// to an HTTP status and the {error, code} body.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}
