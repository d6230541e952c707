package cancellation

import "time"

// Bucket is an advisory refund class. Moving money is up to the payment gateway.
type Bucket string

const (
	BucketFull    Bucket = "full"
	BucketPartial Bucket = "partial"
	BucketNone    Bucket = "none"
)

type Policy struct {
	// FullNotice is the minimum time before check-in for a full refund.
	FullNotice time.Duration
	// PartialNotice is the minimum time before check-in for a partial refund.
	PartialNotice time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		FullNotice:    7 * 24 * time.Hour,
		PartialNotice: 48 * time.Hour,
	}
}

// RefundBucket classifies a cancellation made at now for a stay starting on checkIn:
//
//	notice >= 7 days          full
//	48h <= notice < 7 days    partial
//	otherwise                 none (including past check-in)
func (p Policy) RefundBucket(now, checkIn time.Time) Bucket {
	notice := checkIn.Sub(now)
	switch {
	case notice >= p.FullNotice:
		return BucketFull
	case notice >= p.PartialNotice:
		return BucketPartial
	default:
		return BucketNone
	}
}
