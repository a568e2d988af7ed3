package dispatch

import (
	"bytes"
	"reflect"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/filecoin-project/go-actor-dispatch/pkg/runtime"
	"github.com/filecoin-project/go-actor-dispatch/pkg/state"
)

var log = logging.Logger("actor.dispatch")

// Dispatcher routes one external call to the handler its selector names. It
// holds no state across calls beyond what the lifecycle loads and saves, and
// is driven one call at a time by the host.
type Dispatcher struct {
	table     *Table
	lifecycle *state.Lifecycle
	host      runtime.Host
}

// NewDispatcher wires a compiled table to a state lifecycle and host.
func NewDispatcher(table *Table, lifecycle *state.Lifecycle, host runtime.Host) *Dispatcher {
	return &Dispatcher{table: table, lifecycle: lifecycle, host: host}
}

// Table returns the compiled routing table.
func (d *Dispatcher) Table() *Table { return d.table }

// Dispatch reads the parameter block, loads state, invokes the handler the
// key names and commits its return value, yielding the result block handle
// or NoDataBlockID. Every fault aborts the whole call; nothing is retried.
func (d *Dispatcher) Dispatch(key Key, paramsID uint32) uint32 {
	raw, err := d.host.ParamsRaw(paramsID)
	if err != nil {
		runtime.Abortf(exitcode.ErrSerialization, "failed to read params block %d: %s", paramsID, err)
	}

	st := d.lifecycle.Load(key.IsConstructor())

	// Method 1 never has a table entry; the router owns the implicit
	// constructor.
	if key.IsConstructor() {
		d.lifecycle.Save(st)
		return d.putReturn(st)
	}

	entry, ok := d.table.Lookup(key)
	if !ok {
		log.Warnf("unhandled message: %s", key)
		runtime.Abortf(exitcode.ErrUnhandledMessage, "unrecognized method: %s", key)
	}

	// An absent parameter block yields a zero-value params object rather
	// than a decode of zero bytes.
	params := reflect.New(entry.params.Elem())
	if len(raw) > 0 {
		if err := params.Interface().(cbor.Unmarshaler).UnmarshalCBOR(bytes.NewReader(raw)); err != nil {
			runtime.Abortf(exitcode.ErrSerialization, "failed to decode params for %s: %s", key, err)
		}
	}

	ictx := &invocationContext{lifecycle: d.lifecycle}
	out := entry.Handler.Fn.Call([]reflect.Value{
		reflect.ValueOf(ictx),
		params,
		reflect.ValueOf(st),
	})

	if len(out) == 0 {
		return runtime.NoDataBlockID
	}

	rv := out[0]
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return runtime.NoDataBlockID
		}
	}

	switch ret := rv.Interface().(type) {
	case *abi.EmptyValue:
		return runtime.NoDataBlockID
	case cbor.Marshaler:
		return d.putReturn(ret)
	default:
		runtime.Abortf(exitcode.ErrSerialization, "could not determine type for response from call to %s", key)
		return runtime.NoDataBlockID // unreachable
	}
}

// putReturn serializes a handler's output and stores it as a new block,
// surfacing the block handle to the caller.
func (d *Dispatcher) putReturn(ret cbor.Marshaler) uint32 {
	buf := new(bytes.Buffer)
	if err := ret.MarshalCBOR(buf); err != nil {
		runtime.Abortf(exitcode.ErrSerialization, "failed to marshal return value: %s", err)
	}
	id, err := d.host.PutBlock(runtime.DagCBOR, buf.Bytes())
	if err != nil {
		runtime.Abortf(exitcode.ErrSerialization, "failed to store return value: %s", err)
	}
	return id
}

// invocationContext is the per-call capability handed to handlers.
type invocationContext struct {
	lifecycle *state.Lifecycle
	saved     bool
}

var _ runtime.InvocationContext = (*invocationContext)(nil)

// SaveState implements runtime.InvocationContext. Exactly one save may occur
// per call; a second save aborts.
func (c *invocationContext) SaveState(obj cbor.Marshaler) cid.Cid {
	if c.saved {
		runtime.Abortf(exitcode.ErrIllegalState, "state already saved in this call")
	}
	c.saved = true
	return c.lifecycle.Save(obj)
}

// Abortf implements runtime.InvocationContext.
func (c *invocationContext) Abortf(code exitcode.ExitCode, msg string, args ...interface{}) {
	runtime.Abortf(code, msg, args...)
}
