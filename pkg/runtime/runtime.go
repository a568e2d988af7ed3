// Package runtime defines the host-call surface consumed by generated actor
// code: the root pointer, the block store, the current call-selector and the
// abort protocol. The host is modeled as an injected capability so the
// lifecycle and router stay testable against a fake environment.
package runtime

import (
	"fmt"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// NoDataBlockID is the sentinel block handle meaning "no return payload".
const NoDataBlockID = uint32(0)

// DagCBOR is the multicodec blocks written by generated code are encoded in.
const DagCBOR = uint64(cid.DagCBOR)

// HashBlake2b256 is the multihash function state blocks are addressed under.
const HashBlake2b256 = uint64(mh.BLAKE2B_MIN + 31)

// Host is the fixed contract the deterministic execution environment exposes
// to an actor. Calls run one at a time to completion; none of these is
// retried on failure.
type Host interface {
	// Root returns the content identifier the state root pointer currently names.
	Root() (cid.Cid, error)
	// SetRoot repoints the state root. On failure the previous root stays intact.
	SetRoot(c cid.Cid) error
	// MethodNumber returns the call-selector of the current call.
	MethodNumber() abi.MethodNum
	// ParamsRaw returns the raw parameter bytes a block handle names.
	ParamsRaw(id uint32) ([]byte, error)
	// PutBlock stores a block and returns its call-scoped numeric handle.
	PutBlock(codec uint64, data []byte) (uint32, error)
	// StoreBlock writes a block to the content-addressed store.
	StoreBlock(codec uint64, hashAlg uint64, data []byte) (cid.Cid, error)
	// GetBlock reads a block back, reporting absence distinctly from failure.
	GetBlock(c cid.Cid) ([]byte, bool, error)
}

// InvocationContext is handed to every handler as its first argument.
type InvocationContext interface {
	// SaveState persists the state object as a new block and advances the
	// root pointer. At most one save may happen per call, and it must be the
	// call's last persistent effect.
	SaveState(obj cbor.Marshaler) cid.Cid
	// Abortf terminates the current call with the given condition code.
	Abortf(code exitcode.ExitCode, msg string, args ...interface{})
}

// ExecutionPanic carries an abort out of generated code. The host's
// transactional boundary discards the failed call wholesale, so aborts are
// never recovered inside the actor.
type ExecutionPanic struct {
	code exitcode.ExitCode
	msg  string
}

// Code is the machine-readable condition code.
func (p ExecutionPanic) Code() exitcode.ExitCode { return p.code }

func (p ExecutionPanic) Error() string {
	return fmt.Sprintf("abort %d: %s", p.code, p.msg)
}

// Abortf aborts the current call with a condition code and a human-readable
// message.
func Abortf(code exitcode.ExitCode, msg string, args ...interface{}) {
	panic(ExecutionPanic{code: code, msg: fmt.Sprintf(msg, args...)})
}
