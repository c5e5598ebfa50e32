package xcc

import "errors"

var (
	// ErrMalformedInput is returned for input that does not decode to a valid call
	ErrMalformedInput = errors.New("malformed cross contract call input")

	// ErrInsufficientFunds is returned when the caller cannot fund its router
	ErrInsufficientFunds = errors.New("insufficient wrapped native balance or allowance to fund the router")

	ErrAlreadyInitialized = errors.New("router already initialized")
	ErrNotInitialized     = errors.New("router not initialized")
	ErrNotFound           = errors.New("no scheduled promise at nonce")
	ErrUnauthorizedCaller = errors.New("caller is not the parent account")
	ErrUnknownMethod      = errors.New("unknown method")

	ErrStaticCall         = errors.New("cross contract call is not allowed in a static context")
	ErrDelegateCall       = errors.New("cross contract call is not allowed through delegatecall or callcode")
	ErrAttachedValue      = errors.New("cross contract call does not accept a value")
	ErrRouterCodeMissing  = errors.New("router code is not set")
	ErrWNearNotConfigured = errors.New("wrapped native token address is not set")

	ErrEngineAccountTooLong = errors.New("engine account leaves no room for router accounts")

	// ErrPrepaidGasExhausted is returned when the receipts of a call need more
	// gas than the host transaction has left
	ErrPrepaidGasExhausted = errors.New("not enough prepaid gas left for the router receipts")
)
