// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package surety

import "errors"

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyRegistered   = errors.New("already registered")
	ErrAlreadyClaimed      = errors.New("already claimed")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientFee     = errors.New("insufficient fee")
	ErrInsufficientPool    = errors.New("insufficient pool")
	ErrInsufficientPremium = errors.New("insufficient premium")
	ErrNotEligible         = errors.New("oracle not eligible for index")
	ErrEpochFinalized      = errors.New("request epoch finalized")
	ErrPremiumTooHigh      = errors.New("premium too high")
	ErrNothingToClaim      = errors.New("nothing to claim")
	ErrNotActive           = errors.New("airline not active")
	ErrNotOperational      = errors.New("contract not operational")
	ErrInvalidStatus       = errors.New("invalid status code")
	ErrInvalidAirline      = errors.New("invalid airline id")
)
