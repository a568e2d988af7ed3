// Package state implements the load/save lifecycle of an actor's persistent
// state: one versioned state object reached through the single mutable root
// pointer held by the host, stored as immutable content-addressed blocks.
package state

import (
	"bytes"

	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/filecoin-project/go-actor-dispatch/pkg/runtime"
)

var log = logging.Logger("actor.state")

// Object is a persistent actor state: it knows how to encode and decode
// itself.
type Object interface {
	cbor.Er
}

// Lifecycle loads and saves one actor's state through the host's root
// pointer. Persistence is always write-new-block-then-repoint; blocks are
// never mutated in place.
type Lifecycle struct {
	host      runtime.Host
	prototype func() Object
}

// NewLifecycle creates a Lifecycle for the state type produced by prototype.
func NewLifecycle(host runtime.Host, prototype func() Object) *Lifecycle {
	return &Lifecycle{host: host, prototype: prototype}
}

// Load materializes the current state. A constructor call gets a
// default-initialized instance without touching the store at all, even if a
// prior state block exists. Each fault aborts with its own condition code:
// root unavailable, state block absent, state undecodable.
func (l *Lifecycle) Load(constructor bool) Object {
	if constructor {
		return l.prototype()
	}

	root, err := l.host.Root()
	if err != nil {
		runtime.Abortf(exitcode.ErrIllegalState, "failed to get root: %s", err)
	}
	raw, found, err := l.host.GetBlock(root)
	if err != nil {
		runtime.Abortf(exitcode.ErrIllegalState, "failed to get state: %s", err)
	}
	if !found {
		runtime.Abortf(exitcode.ErrNotFound, "state does not exist")
	}

	obj := l.prototype()
	if err := obj.UnmarshalCBOR(bytes.NewReader(raw)); err != nil {
		runtime.Abortf(exitcode.ErrSerialization, "failed to decode state: %s", err)
	}
	return obj
}

// Save serializes the state, stores it as a new content-addressed block and
// repoints the root at it, returning the new identifier. The block is written
// before the root moves: a failed repoint leaves the prior root intact and
// the new block orphaned, never a corrupt root.
func (l *Lifecycle) Save(obj cbor.Marshaler) cid.Cid {
	buf := new(bytes.Buffer)
	if err := obj.MarshalCBOR(buf); err != nil {
		runtime.Abortf(exitcode.ErrSerialization, "failed to serialize state: %s", err)
	}

	c, err := l.host.StoreBlock(runtime.DagCBOR, runtime.HashBlake2b256, buf.Bytes())
	if err != nil {
		runtime.Abortf(exitcode.ErrIllegalState, "failed to store state: %s", err)
	}
	if err := l.host.SetRoot(c); err != nil {
		runtime.Abortf(exitcode.ErrIllegalState, "failed to set root %s: %s", c, err)
	}
	log.Debugf("state saved at %s", c)
	return c
}
