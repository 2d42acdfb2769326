package store

import "errors"

// errSimulatedWrite backs the in-memory store's failure mode for tests.
var errSimulatedWrite = errors.New("simulated sink write failure")
