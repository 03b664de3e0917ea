package svg

import "errors"

// Sentinel kinds for render errors.
var (
	ErrUnsupportedKind = errors.New("chart kind not supported by svg renderer")
	ErrRender          = errors.New("render chart")
)
