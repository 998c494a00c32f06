package guard

import "errors"

// ErrInvalidCredentials is returned for every login failure. Unknown
// username and wrong password produce the same error so the endpoint does
// not leak which accounts exist.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrUnauthenticated is returned when no valid session backs the request.
var ErrUnauthenticated = errors.New("authentication required")

// ErrForbidden is returned when the authenticated account lacks the
// capability for the operation.
var ErrForbidden = errors.New("access denied")
