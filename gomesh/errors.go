package gomesh

import "errors"

// Errors
var (
	ErrNoInput           = errors.New("one graph file expected")
	ErrBadGraph          = errors.New("bad graph encoding")
	ErrUnsupportedFormat = errors.New("unsupported graph format")
	ErrDuplicateVtxID    = errors.New("duplicate vertex ID")
	ErrUnknownVtxID      = errors.New("edge names an unknown vertex ID")
	ErrBadWorkerCount    = errors.New("worker count must be positive")
	ErrBarrierBroken     = errors.New("barrier broken: a worker failed to arrive")
	ErrWorkerFault       = errors.New("splitter worker fault")
	ErrNotStable         = errors.New("partition is not stable")
	ErrNotFound          = errors.New("not found")
	ErrBadCatalogParam   = errors.New("bad catalog param")
	ErrCatalogVersion    = errors.New("catalog version is incompatible")
)
