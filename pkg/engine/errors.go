package engine

// Error is a failure with a stable, user-visible code. The gateway maps
// these onto the wire error envelope; nothing else about the failure
// crosses the real-time channel.
type Error struct {
	Code    string
	Message string
	// MinDeposit is set on the deposit-related codes so the gateway can
	// unicast a deposit-required payload.
	MinDeposit int64
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// Is matches engine errors by code so errors.Is works across separately
// constructed values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Stable error codes surfaced by engine operations.
var (
	ErrAuctionNotFound = &Error{Code: "AUCTION_NOT_FOUND", Message: "auction not found"}
	ErrAuctionNotLive  = &Error{Code: "AUCTION_NOT_LIVE", Message: "auction is not accepting bids"}
	ErrUserNotFound    = &Error{Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrBidNotFound     = &Error{Code: "BID_NOT_FOUND", Message: "bid not found"}
	ErrKycNotVerified  = &Error{Code: "KYC_NOT_VERIFIED", Message: "identity is not verified"}
	ErrOverrideAmount  = &Error{Code: "OVERRIDE_AMOUNT_REQUIRED", Message: "override requires an amount"}
)

// Deposit-related failures carry the minimum deposit the user needs.
func errDepositRequired(minDeposit int64) *Error {
	return &Error{Code: "DEPOSIT_REQUIRED", Message: "a verified deposit is required to bid", MinDeposit: minDeposit}
}

func errInsufficientWalletForDeposit(minDeposit int64) *Error {
	return &Error{Code: "INSUFFICIENT_WALLET_FOR_DEPOSIT", Message: "available balance cannot cover the bid deposit", MinDeposit: minDeposit}
}

func errInsufficientWalletForOverride(shortfall int64) *Error {
	return &Error{Code: "INSUFFICIENT_WALLET_FOR_OVERRIDE", Message: "available balance cannot cover the override deposit", MinDeposit: shortfall}
}
