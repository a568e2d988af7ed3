package runtime

import (
	"context"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"

	"github.com/filecoin-project/go-actor-dispatch/pkg/storage"
)

// MemoryHost is an in-memory Host for tests and embedding runtimes. It
// follows the host's single-call execution model and is not safe for
// concurrent use.
//
// Numeric block handles cover parameter and return blocks: PutBlock hands out
// handles starting at 1, handle 0 is NoDataBlockID. The Fail* toggles inject
// faults for exercising abort paths.
type MemoryHost struct {
	store   *storage.Storage
	method  abi.MethodNum
	root    cid.Cid
	hasRoot bool
	blocks  [][]byte

	FailRoot    bool
	FailSetRoot bool
	FailStore   bool
}

var _ Host = (*MemoryHost)(nil)

// NewMemoryHost creates a MemoryHost over an in-memory block store.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{store: storage.NewMemory()}
}

// SetMethodNumber sets the call-selector reported for the current call.
func (h *MemoryHost) SetMethodNumber(m abi.MethodNum) { h.method = m }

// ClearRoot forgets the root pointer, modeling an uninitialized actor.
func (h *MemoryHost) ClearRoot() {
	h.root = cid.Undef
	h.hasRoot = false
}

// MethodNumber implements Host.
func (h *MemoryHost) MethodNumber() abi.MethodNum { return h.method }

// Root implements Host.
func (h *MemoryHost) Root() (cid.Cid, error) {
	if h.FailRoot || !h.hasRoot {
		return cid.Undef, errors.New("root pointer unavailable")
	}
	return h.root, nil
}

// SetRoot implements Host.
func (h *MemoryHost) SetRoot(c cid.Cid) error {
	if h.FailSetRoot {
		return errors.New("root pointer is read-only")
	}
	h.root = c
	h.hasRoot = true
	return nil
}

// ParamsRaw implements Host. Handle 0 carries no bytes.
func (h *MemoryHost) ParamsRaw(id uint32) ([]byte, error) {
	if id == NoDataBlockID {
		return nil, nil
	}
	if int(id) > len(h.blocks) {
		return nil, errors.Errorf("no block for handle %d", id)
	}
	return h.blocks[id-1], nil
}

// PutBlock implements Host.
func (h *MemoryHost) PutBlock(_ uint64, data []byte) (uint32, error) {
	if h.FailStore {
		return 0, errors.New("block store unavailable")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	h.blocks = append(h.blocks, cp)
	return uint32(len(h.blocks)), nil
}

// StoreBlock implements Host.
func (h *MemoryHost) StoreBlock(codec uint64, hashAlg uint64, data []byte) (cid.Cid, error) {
	if h.FailStore {
		return cid.Undef, errors.New("block store unavailable")
	}
	return h.store.PutRaw(context.Background(), codec, hashAlg, data)
}

// GetBlock implements Host.
func (h *MemoryHost) GetBlock(c cid.Cid) ([]byte, bool, error) {
	data, err := h.store.GetRaw(context.Background(), c)
	if err == storage.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
