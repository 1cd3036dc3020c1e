package entities

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrMintNotFound    = errors.New("mint record not found")

	// ErrInvalidState means the requested transition is not legal for the
	// order's current status. Also returned when a concurrent request won
	// the conditional status update.
	ErrInvalidState = errors.New("operation not allowed in current order state")

	ErrInvalidDimensions   = errors.New("parcel dimensions must be positive")
	ErrOriginNotConfigured = errors.New("seller shipping origin not configured")
	ErrNoRatesAvailable    = errors.New("no shipping rates available")
	ErrShippingProvider    = errors.New("shipping provider error")

	ErrPaymentProvider = errors.New("payment provider error")
	ErrPaymentDeclined = errors.New("payment declined")
	ErrTimeout         = errors.New("external call timed out")

	ErrMintFailed = errors.New("mint failed")
	// ErrMintAmbiguous means a mint transaction may have landed on-chain but
	// its outcome could not be determined. Callers must reconcile before
	// retrying: a blind retry can issue a second token.
	ErrMintAmbiguous = errors.New("mint outcome ambiguous")
)

// ErrAmountMismatch is a provider error: the captured amount or currency does
// not match the order total. Never accepted as a partial charge.
var ErrAmountMismatch = fmt.Errorf("charged amount does not match order total: %w", ErrPaymentProvider)
