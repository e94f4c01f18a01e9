package avatar

import "errors"

// ErrNotFound is returned when an avatar ID does not resolve to a live
// avatar.
var ErrNotFound = errors.New("avatar not found")
