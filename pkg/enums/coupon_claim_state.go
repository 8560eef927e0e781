package enums

// CouponClaimState is the derived state shown to a customer for a claimed
// coupon. It is computed from the claim and coupon rows, never stored.
type CouponClaimState string

const (
	CouponClaimStateAvailable CouponClaimState = "available"
	CouponClaimStateUsed      CouponClaimState = "used"
	CouponClaimStateExpired   CouponClaimState = "expired"
	CouponClaimStateInactive  CouponClaimState = "inactive"
)
