package anim

import "errors"

// ErrUnknownAnimation is returned when a registry lookup names an animation
// that was never registered.
var ErrUnknownAnimation = errors.New("unknown animation")
