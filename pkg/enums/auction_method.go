package enums

import "fmt"

// AuctionMethod identifies the bidding mechanism used for an item.
type AuctionMethod string

const (
	AuctionMethodOpenBidding AuctionMethod = "open_bidding"
)

var validAuctionMethods = []AuctionMethod{
	AuctionMethodOpenBidding,
}

// String implements fmt.Stringer.
func (a AuctionMethod) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuctionMethod.
func (a AuctionMethod) IsValid() bool {
	for _, candidate := range validAuctionMethods {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuctionMethod converts raw input into an AuctionMethod.
func ParseAuctionMethod(value string) (AuctionMethod, error) {
	for _, candidate := range validAuctionMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid auction method %q", value)
}
