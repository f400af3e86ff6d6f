package errors

import "net/http"

// Code is the stable machine readable error code sent to clients.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeProductNotFound    Code = "PRODUCT_NOT_FOUND"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeInsufficientStock  Code = "INSUFFICIENT_STOCK"
	CodeInsufficientPoints Code = "INSUFFICIENT_POINTS"
	CodeIdempotency        Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit          Code = "RATE_LIMITED"
	CodeTransactionAborted Code = "TRANSACTION_ABORTED"
	CodeInternal           Code = "INTERNAL_ERROR"
	CodeDependency         Code = "DEPENDENCY_ERROR"
)

// Metadata decides how a code renders over HTTP. Client errors expose the
// error's own message; server errors only ever show PublicMessage.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	ExposeMessage  bool
	DetailsAllowed bool
}

func clientError(status int, public string) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: public, ExposeMessage: true}
}

func serverError(status int, public string) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: public, Retryable: true}
}

func (m Metadata) withDetails() Metadata {
	m.DetailsAllowed = true
	return m
}

func (m Metadata) retryable() Metadata {
	m.Retryable = true
	return m
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:         clientError(http.StatusBadRequest, "validation failed").withDetails(),
	CodeUnauthorized:       clientError(http.StatusUnauthorized, "authentication required"),
	CodeNotFound:           clientError(http.StatusNotFound, "resource not found"),
	CodeProductNotFound:    clientError(http.StatusNotFound, "product not found").withDetails(),
	CodeUserNotFound:       clientError(http.StatusNotFound, "user not found"),
	CodeInsufficientStock:  clientError(http.StatusBadRequest, "insufficient stock").withDetails(),
	CodeInsufficientPoints: clientError(http.StatusBadRequest, "insufficient points").withDetails(),
	CodeIdempotency:        clientError(http.StatusConflict, "idempotency key reused").withDetails(),
	CodeRateLimit:          clientError(http.StatusTooManyRequests, "too many requests").retryable(),
	CodeTransactionAborted: serverError(http.StatusInternalServerError, "transaction aborted"),
	CodeInternal:           serverError(http.StatusInternalServerError, "internal server error"),
	CodeDependency:         serverError(http.StatusServiceUnavailable, "dependency unavailable").withDetails(),
}

// MetadataFor falls back to CodeInternal for codes it does not know.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}
