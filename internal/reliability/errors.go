package reliability

import "errors"

// ErrReliabilityExhausted is raised when a buffered packet's ACK never
// arrives within MAX_RETRIES retransmissions. It is fatal for the session
// (spec.md §7): the caller must stop sending and tear the session down.
var ErrReliabilityExhausted = errors.New("reliability: max retries exhausted")
