package credential

import "errors"

var (
	// ErrMalformed reports a bearer string that is not a decodable credential.
	ErrMalformed = errors.New("credential: malformed token")

	// ErrExpired reports a credential whose exp claim is in the past.
	ErrExpired = errors.New("credential: expired")

	// ErrNotYetValid reports a credential used before its nbf claim.
	ErrNotYetValid = errors.New("credential: not yet valid")
)
