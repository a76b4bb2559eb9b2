package idcache

import "github.com/unkn0wn-root/idcache/log"

// Fields and Logger are re-exported so callers configuring Options don't
// need a second import for the common case.
type (
	Fields = log.Fields
	Logger = log.Logger
)

// NopLogger discards everything.
type NopLogger = log.Nop
