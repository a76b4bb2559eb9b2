package hclog

import (
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/unkn0wn-root/idcache/log"
)

var _ log.Logger = Logger{}

// Logger forwards to a hashicorp go-hclog logger. Fields are emitted as
// sorted key/value pairs so output is stable across runs.
type Logger struct{ L hclog.Logger }

func (h Logger) Debug(msg string, f log.Fields) { h.L.Debug(msg, kv(f)...) }
func (h Logger) Info(msg string, f log.Fields)  { h.L.Info(msg, kv(f)...) }
func (h Logger) Warn(msg string, f log.Fields)  { h.L.Warn(msg, kv(f)...) }
func (h Logger) Error(msg string, f log.Fields) { h.L.Error(msg, kv(f)...) }

func kv(f log.Fields) []any {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, 2*len(f))
	for _, k := range keys {
		out = append(out, k, f[k])
	}
	return out
}
