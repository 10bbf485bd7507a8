package domain

import "errors"

var (
	// ErrNotFound means the symbol has no profile data upstream. It is permanent.
	ErrNotFound = errors.New("not found")
	// ErrQuotaExceeded means the user's daily upstream budget is spent and no usable cache exists.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrUpstream is a transient upstream failure with no cache to fall back on.
	ErrUpstream = errors.New("upstream error")
	// ErrUpstreamTimeout is ErrUpstream caused by a per-call deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrValuationUnavailable means no intrinsic-value candidate could be selected.
	ErrValuationUnavailable = errors.New("valuation unavailable")
	// ErrInvalidSymbol means the ticker is empty or not plausible after normalization.
	ErrInvalidSymbol = errors.New("invalid symbol")
)
