// Package dispatch compiles an actor's collected handlers into a routing
// table keyed by call-selector and routes incoming calls through it. All
// declaration faults are rejected when the table is built; a built table can
// no longer fail to route.
package dispatch

import (
	"reflect"
	"strconv"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/filecoin-project/go-actor-dispatch/pkg/attribute"
	"github.com/filecoin-project/go-actor-dispatch/pkg/export"
	"github.com/filecoin-project/go-actor-dispatch/pkg/runtime"
)

// Entry binds one dispatch key to one handler.
type Entry struct {
	Key     Key
	Handler export.Handler

	// params is the pointer type raw parameter bytes decode into.
	params reflect.Type
}

// Table is the compiled selector-to-handler mapping for one actor. Keys are
// pairwise distinct, enforced at build time rather than dispatch time.
type Table struct {
	entries []Entry
	index   map[Key]int
}

// Entries returns the table's entries in assignment order.
func (t *Table) Entries() []Entry { return t.entries }

// Lookup finds the entry for a key by exact match.
func (t *Table) Lookup(k Key) (*Entry, bool) {
	i, ok := t.index[k]
	if !ok {
		return nil, false
	}
	return &t.entries[i], true
}

var (
	ctxInterface    = reflect.TypeOf((*runtime.InvocationContext)(nil)).Elem()
	cborUnmarshaler = reflect.TypeOf((*cbor.Unmarshaler)(nil)).Elem()
)

// BuildTable assigns each collected handler a dispatch key under the actor's
// dispatch mode and validates the result. Faults found in one pass are
// reported together.
//
// In method_num mode the assignment is sequential when no handler carries a
// binding (the i-th handler, 1-indexed, gets method number i+1, since method
// 1 is reserved for construction) and explicit otherwise. In explicit
// assignment an unbound handler is excluded from the table: declared but not
// exported for dispatch.
func BuildTable(cfg attribute.ActorConfig, stateType reflect.Type, handlers []export.Handler) (*Table, error) {
	var entries []Entry
	var merr *multierror.Error

	switch cfg.Mode {
	case attribute.MethodNum:
		if bound(handlers) {
			for _, h := range handlers {
				if !h.HasBinding {
					continue
				}
				num, err := strconv.ParseUint(h.Binding, 10, 64)
				if err != nil {
					merr = multierror.Append(merr, errors.Errorf("dispatch: handler %s: binding %q is not a method number", h.Name, h.Binding))
					continue
				}
				if abi.MethodNum(num) == ConstructorMethod {
					merr = multierror.Append(merr, errors.Errorf("dispatch: handler %s: method %d is reserved for construction", h.Name, ConstructorMethod))
					continue
				}
				entries = append(entries, Entry{Key: MethodKey(abi.MethodNum(num)), Handler: h})
			}
		} else {
			for i, h := range handlers {
				entries = append(entries, Entry{Key: MethodKey(abi.MethodNum(i + 2)), Handler: h})
			}
		}
	case attribute.AbiSelector:
		for _, h := range handlers {
			if !h.HasBinding {
				continue
			}
			entries = append(entries, Entry{Key: SelectorKey(h.Binding), Handler: h})
		}
	default:
		return nil, errors.Errorf("dispatch: unsupported mode %v", cfg.Mode)
	}

	index := make(map[Key]int, len(entries))
	for i := range entries {
		k := entries[i].Key
		if prev, dup := index[k]; dup {
			merr = multierror.Append(merr, errors.Errorf("dispatch: %s assigned to both %s and %s", k, entries[prev].Handler.Name, entries[i].Handler.Name))
			continue
		}
		index[k] = i
	}

	for i := range entries {
		if err := checkSignature(&entries[i], stateType); err != nil {
			merr = multierror.Append(merr, err)
		}
	}

	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &Table{entries: entries, index: index}, nil
}

func bound(handlers []export.Handler) bool {
	for _, h := range handlers {
		if h.HasBinding {
			return true
		}
	}
	return false
}

// checkSignature enforces the handler contract:
//
//	func(ctx runtime.InvocationContext, params *P, st *S)
//
// optionally with a single result, where *P implements cbor.Unmarshaler and
// *S is the actor's state type.
func checkSignature(e *Entry, stateType reflect.Type) error {
	t := e.Handler.Fn.Type()
	bad := func() error {
		return errors.Errorf(
			"dispatch: handler %s has signature %s, want func(runtime.InvocationContext, params cbor.Unmarshaler, state %s) with at most one result",
			e.Handler.Name, t, stateType)
	}

	if t.NumIn() != 3 || t.NumOut() > 1 || t.IsVariadic() {
		return bad()
	}
	if t.In(0) != ctxInterface {
		return bad()
	}
	if t.In(1).Kind() != reflect.Ptr || !t.In(1).Implements(cborUnmarshaler) {
		return bad()
	}
	if t.In(2) != stateType {
		return bad()
	}

	e.params = t.In(1)
	return nil
}
