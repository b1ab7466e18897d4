package checkout

import "errors"

var (
	ErrEmptyCart           = errors.New("Cart is empty")
	ErrNotPurchasable      = errors.New("Cart contains items that cannot be bought")
	ErrIntentFailed        = errors.New("Could not create payment")
	ErrConfirmFailed       = errors.New("Could not verify payment")
	ErrIntentMismatch      = errors.New("Payment does not belong to this user")
	ErrPaymentPending      = errors.New("Payment is still processing")
	ErrPaymentNotSucceeded = errors.New("Payment did not succeed")
	ErrCartChanged         = errors.New("Cart changed after payment was started")
	ErrOrderNotRecorded    = errors.New("Payment succeeded but the order could not be recorded")
)
