package utils

import "time"

const day = 24 * time.Hour

// RentalDays returns the number of whole days between dateOut and dateReturned.
// Partial days are truncated and a dateOut in the future yields 0.
func RentalDays(dateOut, dateReturned time.Time) int64 {
	elapsed := dateReturned.Sub(dateOut)
	if elapsed <= 0 {
		return 0
	}
	return int64(elapsed / day)
}

// CalculateRentalFee returns whole elapsed days multiplied by the daily rate.
func CalculateRentalFee(dateOut, dateReturned time.Time, dailyRateCents int64) int64 {
	return RentalDays(dateOut, dateReturned) * dailyRateCents
}
