package auth

import "errors"

// Verification errors. All of them collapse to a deny decision at the
// gate; the specific cause is only ever logged.
var (
	ErrMissingHeader       = errors.New("missing authorization header")
	ErrMalformedHeader     = errors.New("malformed authorization header")
	ErrMalformedToken      = errors.New("malformed bearer token")
	ErrKeyNotFound         = errors.New("signing key not found")
	ErrNoUsableKeys        = errors.New("no usable signing keys in key set")
	ErrInvalidSignature    = errors.New("invalid token signature")
	ErrTokenExpired        = errors.New("token expired")
	ErrKeyResolutionFailed = errors.New("signing key resolution failed")
)
