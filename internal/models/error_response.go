package models

import "net/http"

// ErrorKind - категория ошибки жизненного цикла.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "NotFound"
	KindInvalidState ErrorKind = "InvalidState"
	KindValidation   ErrorKind = "ValidationError"
	KindDuplicate    ErrorKind = "DuplicateError"
	KindRaceLost     ErrorKind = "RaceLost"
	KindAccess       ErrorKind = "AccessError"
	KindInternal     ErrorKind = "InternalError"
)

// ErrorResponse описывает ошибку с кодом и сообщением.
type ErrorResponse struct {
	StatusCode int       `json:"-"`
	Kind       ErrorKind `json:"-"`
	Code       string    `json:"code"`
	Message    string    `json:"reason"`
}

// NewErrorResponse создает новую ошибку с кодом и сообщением.
func NewErrorResponse(statusCode int, kind ErrorKind, code, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Kind:       kind,
		Code:       code,
		Message:    message}
}

// Реализация метода Error() для удовлетворения интерфейса error.
func (e *ErrorResponse) Error() string {
	return e.Message
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал с копиями sentinel-ошибок.
func (e *ErrorResponse) Is(target error) bool {
	t, ok := target.(*ErrorResponse)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage возвращает копию ошибки с уточненным сообщением.
func (e *ErrorResponse) WithMessage(message string) *ErrorResponse {
	c := *e
	c.Message = message
	return &c
}

// AsRaceLost помечает ошибку как проигранную гонку при условной записи.
func (e *ErrorResponse) AsRaceLost() *ErrorResponse {
	c := *e
	c.Kind = KindRaceLost
	return &c
}

var (
	ErrRequestNotFound     = NewErrorResponse(http.StatusNotFound, KindNotFound, "RequestNotFound", "request not found")
	ErrOfferNotFound       = NewErrorResponse(http.StatusNotFound, KindNotFound, "OfferNotFound", "offer not found")
	ErrPriceEntryNotFound  = NewErrorResponse(http.StatusNotFound, KindNotFound, "PriceEntryNotFound", "price list entry not found")
	ErrRequestNotOpen      = NewErrorResponse(http.StatusConflict, KindInvalidState, "RequestNotOpen", "request is no longer open for offers")
	ErrSlaExpired          = NewErrorResponse(http.StatusConflict, KindInvalidState, "SlaExpired", "request SLA deadline has passed")
	ErrOfferNotPending     = NewErrorResponse(http.StatusConflict, KindInvalidState, "OfferNotPending", "offer can no longer be accepted or rejected")
	ErrPriceSpreadExceeded = NewErrorResponse(http.StatusBadRequest, KindValidation, "PriceSpreadExceeded", "maxPrice - minPrice must not exceed 200")
	ErrInvalidPrice        = NewErrorResponse(http.StatusBadRequest, KindValidation, "InvalidPrice", "price must be a positive whole number")
	ErrMissingField        = NewErrorResponse(http.StatusBadRequest, KindValidation, "MissingRequiredField", "missing required field")
	ErrInvalidField        = NewErrorResponse(http.StatusBadRequest, KindValidation, "InvalidField", "invalid field value")
	ErrDuplicateOffer      = NewErrorResponse(http.StatusConflict, KindDuplicate, "DuplicateOffer", "clinic has already submitted an offer for this request")
	ErrDuplicatePriceEntry = NewErrorResponse(http.StatusConflict, KindDuplicate, "DuplicatePriceEntry", "price list entry for this procedure already exists")
	ErrUnauthorized        = NewErrorResponse(http.StatusUnauthorized, KindAccess, "Unauthorized", "authentication required")
	ErrForbidden           = NewErrorResponse(http.StatusForbidden, KindAccess, "Forbidden", "operation is not allowed for this user")
)
