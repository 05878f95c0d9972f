package dedupe

import "errors"

// ErrAmbiguousMatch marks an incoming record that matched more than one known
// record on the deciding tier. Such records are held out for manual resolution.
var ErrAmbiguousMatch = errors.New("ambiguous match")
