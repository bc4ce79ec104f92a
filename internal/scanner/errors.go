package scanner

import "errors"

// ErrAlreadyUsed is returned by Engine.Scan when the engine has already
// scanned once. Engines are single use; create a new one per scan.
var ErrAlreadyUsed = errors.New("scanner: engine already used")
