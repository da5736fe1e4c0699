package market

import "errors"

// Errors
var (
	ErrInvalidUnits       = errors.New("invalid units")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrInvalidBalance     = errors.New("invalid balance")
	ErrUnknownProduct     = errors.New("unknown product")
	ErrUnknownOffer       = errors.New("unknown offer")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrOfferExists        = errors.New("offer exists")
	ErrOfferClaimed       = errors.New("offer already claimed")
	ErrOverfill           = errors.New("fill exceeds remaining units")
	ErrNotOfferOwner      = errors.New("offer belongs to another user")
	ErrUnstable           = errors.New("injected instability failure")
	ErrCorruptOfferRecord = errors.New("corrupted offer record")
)
