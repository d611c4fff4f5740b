package wire

import "errors"

// ErrMalformedFrame is returned when a payload cannot be parsed into a Frame
// because it carries no message_type line.
var ErrMalformedFrame = errors.New("wire: malformed frame")
