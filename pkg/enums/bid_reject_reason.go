package enums

import "fmt"

// BidRejectReason explains why admission declined a bid.
type BidRejectReason string

const (
	BidRejectReasonBidTooLow         BidRejectReason = "bid_too_low"
	BidRejectReasonOutbid            BidRejectReason = "outbid"
	BidRejectReasonSelfOutbid        BidRejectReason = "self_outbid"
	BidRejectReasonAuctionNotOpen    BidRejectReason = "auction_not_open"
	BidRejectReasonBidderNotEligible BidRejectReason = "bidder_not_eligible"
)

var validBidRejectReasons = []BidRejectReason{
	BidRejectReasonBidTooLow,
	BidRejectReasonOutbid,
	BidRejectReasonSelfOutbid,
	BidRejectReasonAuctionNotOpen,
	BidRejectReasonBidderNotEligible,
}

// String implements fmt.Stringer.
func (r BidRejectReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known BidRejectReason.
func (r BidRejectReason) IsValid() bool {
	for _, candidate := range validBidRejectReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseBidRejectReason converts raw input into a BidRejectReason.
func ParseBidRejectReason(value string) (BidRejectReason, error) {
	for _, candidate := range validBidRejectReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bid reject reason %q", value)
}
