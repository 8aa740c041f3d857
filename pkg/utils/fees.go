package utils

// PlatformFeePercent is the platform's cut of every instant booking.
const PlatformFeePercent = 10

// SplitBookingAmount splits a booking total into the platform fee and the
// photographer's earnings. The fee is floored so the two parts always sum to
// the total exactly.
func SplitBookingAmount(total int64) (platformFee, photographerEarnings int64) {
	if total < 0 {
		return 0, 0
	}
	platformFee = total * PlatformFeePercent / 100
	photographerEarnings = total - platformFee
	return platformFee, photographerEarnings
}
