package storage

import "errors"

// ErrAuctionNotFound is returned when no auction exists for the given ID.
var ErrAuctionNotFound = errors.New("auction not found")

// ErrBidNotFound is returned when no bid exists for the given ID or idempotency key.
var ErrBidNotFound = errors.New("bid not found")

// ErrWalletNotFound is returned when no wallet exists for the given user ID.
var ErrWalletNotFound = errors.New("wallet not found")

// ErrWalletExists is returned when creating a wallet for a user who already has one.
var ErrWalletExists = errors.New("wallet already exists")

// ErrInsufficientFunds is returned when a wallet's available balance
// cannot cover the escrow a mutation would lock.
var ErrInsufficientFunds = errors.New("insufficient available funds")

// ErrVersionConflict is returned when a conditional write lost a race
// with a concurrent mutation of the same row. Callers may re-read and retry.
var ErrVersionConflict = errors.New("version conflict")

// ErrAuctionEnded is returned by MarkAuctionEnded when the auction is
// already in the terminal ENDED state.
var ErrAuctionEnded = errors.New("auction already ended")

// ErrEscrowAlreadyReleased is returned when releasing a bid's escrow
// that a previous finalize pass already released.
var ErrEscrowAlreadyReleased = errors.New("escrow already released")
