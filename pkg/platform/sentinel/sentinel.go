package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and provider clients
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: unique constraint hit (nickname, derived email)
// - ErrInvalidCredentials: sign-in rejected; the account may not exist yet
// - ErrExpired: session past its lifetime
// - ErrUnavailable: backend or provider temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExpired            = errors.New("expired")
	ErrUnavailable        = errors.New("unavailable")
)
