package progression

import "errors"

// Error is a domain failure with a stable, client-facing reason code.
type Error struct {
	Code      string
	Message   string
	Retryable bool
}

func (e *Error) Error() string { return e.Message }

var (
	ErrInvalidCard               = &Error{Code: "INVALID_CARD", Message: "unknown card id"}
	ErrInsufficientPoints        = &Error{Code: "INSUFFICIENT_POINTS", Message: "not enough points to unlock this card"}
	ErrDuplicatePhoto            = &Error{Code: "DUPLICATE_IMAGE", Message: "this photo has already been submitted"}
	ErrNoSubjectDetected         = &Error{Code: "NO_CLOUD_DETECTED", Message: "no cloud or sky phenomenon detected"}
	ErrClassificationTimeout     = &Error{Code: "CLASSIFICATION_TIMEOUT", Message: "classification timed out, please retry", Retryable: true}
	ErrClassificationUnavailable = &Error{Code: "CLASSIFICATION_UNAVAILABLE", Message: "classification service unavailable, please retry", Retryable: true}
	ErrFingerprintUnavailable    = &Error{Code: "FINGERPRINT_UNAVAILABLE", Message: "photo fingerprint could not be computed"}
	ErrUnauthorized              = &Error{Code: "UNAUTHORIZED", Message: "authentication required"}
	ErrInvalidRequest            = &Error{Code: "INVALID_REQUEST", Message: "invalid request"}
)

// ReasonCode returns the reason code of the first domain error in err's
// chain, or "INTERNAL" for anything else.
func ReasonCode(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL"
}

// IsRetryable reports whether the client may retry the same request.
func IsRetryable(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Retryable
}
