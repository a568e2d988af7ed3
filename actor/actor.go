// Package actor assembles a compiled routing object from an actor
// declaration: the resolved attribute configuration, the collected handlers,
// the dispatch table, the routing function and the state lifecycle. Assembly
// happens once, at registration time; every configuration fault surfaces
// here, before the actor can serve a single call.
package actor

import (
	"reflect"

	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"

	"github.com/filecoin-project/go-actor-dispatch/pkg/attribute"
	"github.com/filecoin-project/go-actor-dispatch/pkg/dispatch"
	"github.com/filecoin-project/go-actor-dispatch/pkg/export"
	"github.com/filecoin-project/go-actor-dispatch/pkg/runtime"
	"github.com/filecoin-project/go-actor-dispatch/pkg/state"
)

var log = logging.Logger("actor")

// Actor is the compiled artifact for one actor declaration. It is immutable
// after assembly and safe to route calls through for the life of the
// program; the host drives it one call at a time.
type Actor struct {
	config     attribute.ActorConfig
	dispatcher *dispatch.Dispatcher
	host       runtime.Host
}

// New resolves the actor-level attribute string, collects the exported
// handlers declared on impl and compiles the dispatch table against the
// state type produced by prototype.
func New(config string, impl interface{}, prototype func() state.Object, host runtime.Host) (*Actor, error) {
	cfg, err := attribute.ParseActorConfig(config)
	if err != nil {
		return nil, err
	}
	if cfg.Invoke && cfg.Mode == attribute.AbiSelector {
		return nil, errors.New("actor: the numeric invoke entrypoint cannot carry abi_selector keys, declare invoke = false")
	}
	if host == nil {
		return nil, errors.New("actor: no host environment supplied")
	}
	if prototype == nil {
		return nil, errors.New("actor: no state prototype supplied")
	}

	proto := prototype()
	if proto == nil {
		return nil, errors.New("actor: state prototype returned nil")
	}
	stateType := reflect.TypeOf(proto)
	if name := stateName(stateType); name != cfg.StateType {
		return nil, errors.Errorf("actor: configured state type %q does not match prototype type %s", cfg.StateType, name)
	}

	handlers, err := export.Collect(impl)
	if err != nil {
		return nil, err
	}

	table, err := dispatch.BuildTable(cfg, stateType, handlers)
	if err != nil {
		return nil, err
	}
	for _, e := range table.Entries() {
		log.Debugf("actor %s: %s -> %s", cfg.StateType, e.Key, e.Handler.Name)
	}

	lifecycle := state.NewLifecycle(host, prototype)
	return &Actor{
		config:     cfg,
		dispatcher: dispatch.NewDispatcher(table, lifecycle, host),
		host:       host,
	}, nil
}

func stateName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Config returns the resolved actor-level configuration.
func (a *Actor) Config() attribute.ActorConfig { return a.config }

// Table returns the compiled dispatch table, for tools and tests.
func (a *Actor) Table() *dispatch.Table { return a.dispatcher.Table() }

// Dispatch routes one external call: a call-selector plus a parameter block
// handle in, a result block handle (or runtime.NoDataBlockID) out.
func (a *Actor) Dispatch(key dispatch.Key, paramsID uint32) uint32 {
	return a.dispatcher.Dispatch(key, paramsID)
}

// Entrypoint returns the externally callable invoke function, present only
// when the actor was declared with invoke = true. The returned function
// reads the call-selector from the host: one numeric parameter handle in,
// one numeric result handle out.
func (a *Actor) Entrypoint() (func(id uint32) uint32, bool) {
	if !a.config.Invoke {
		return nil, false
	}
	return func(id uint32) uint32 {
		return a.Dispatch(dispatch.MethodKey(a.host.MethodNumber()), id)
	}, true
}
