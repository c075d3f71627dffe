package service

import "errors"

// Error kinds. Handlers map these to status codes; the concrete errors
// below carry the message shown to the client.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
	ErrUpstream     = errors.New("upstream failure")
)

type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrUserNotFound            = newError(ErrNotFound, "user not found")
	ErrUserAlreadyExists       = newError(ErrConflict, "user already exists")
	ErrEmailTaken              = newError(ErrConflict, "email already in use")
	ErrUsernameTaken           = newError(ErrConflict, "username already taken")
	ErrInvalidCredentials      = newError(ErrUnauthorized, "invalid credentials")
	ErrCurrentPasswordRequired = newError(ErrInvalidInput, "current password is required")
	ErrWrongPassword           = newError(ErrUnauthorized, "current password is incorrect")
	ErrPasswordTooShort        = newError(ErrInvalidInput, "password must be at least 6 characters")
	ErrAdminRequired           = newError(ErrForbidden, "admin access required")

	ErrProductNotFound      = newError(ErrNotFound, "product not found")
	ErrProductAccessDenied  = newError(ErrForbidden, "not allowed to modify this product")
	ErrProductFieldsMissing = newError(ErrInvalidInput, "name, price and category are required")
	ErrNoActiveProducts     = newError(ErrNotFound, "no products available")

	ErrCartNotFound     = newError(ErrNotFound, "cart not found")
	ErrCartItemNotFound = newError(ErrNotFound, "item not in cart")
	ErrInvalidQuantity  = newError(ErrInvalidInput, "quantity must be at least 1")
	ErrCartEmpty        = newError(ErrInvalidState, "cart empty")

	ErrOrderNotFound        = newError(ErrNotFound, "order not found")
	ErrOrderAccessDenied    = newError(ErrForbidden, "access denied")
	ErrInvalidStatus        = newError(ErrInvalidInput, "invalid status")
	ErrTransitionNotAllowed = newError(ErrInvalidState, "status transition not allowed")

	ErrReviewNotFound     = newError(ErrNotFound, "review not found")
	ErrReviewAccessDenied = newError(ErrForbidden, "not your review")
	ErrNotVerifiedBuyer   = newError(ErrForbidden, "not a verified buyer")
	ErrProductNotInOrder  = newError(ErrForbidden, "product not in order")
	ErrAlreadyReviewed    = newError(ErrConflict, "already reviewed")
	ErrInvalidRating      = newError(ErrInvalidInput, "rating must be between 1 and 5")

	ErrPromotionNotFound = newError(ErrNotFound, "promotion not found")
	ErrPromotionTitle    = newError(ErrInvalidInput, "title is required")
	ErrPromotionWindow   = newError(ErrInvalidInput, "validUntil must not be before validFrom")
	ErrInvalidProductRef = newError(ErrInvalidInput, "applicableProducts must contain product ids")

	ErrNotificationNotFound = newError(ErrNotFound, "notification not found")
	ErrPushTokenRequired    = newError(ErrInvalidInput, "token is required")
	ErrInvalidPushToken     = newError(ErrInvalidInput, "invalid Expo push token")
	ErrUnknownAudience      = newError(ErrInvalidInput, "unknown audience")

	ErrUnsupportedImage = newError(ErrInvalidInput, "unsupported image format")
	ErrImageHost        = newError(ErrUpstream, "image upload failed")
)
