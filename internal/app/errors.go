package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrRunNotFound   = errors.New("run not found")
	ErrLayerNotFound = errors.New("layer not found")
)

// Failure kinds used as the processing_failures_total label.
const (
	kindFileAccess        = "file_access"
	kindMalformedRecord   = "malformed_record"
	kindInternalInvariant = "internal_invariant"
	kindCancelled         = "cancelled"
	kindOther             = "other"
)
