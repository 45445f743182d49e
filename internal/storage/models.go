package storage

import "github.com/suspectuso/clip-review-bot/internal/payment"

// Profile is a user's registered payout method
type Profile struct {
	UserID  int64
	Method  payment.Method
	Details string
}
