// Package storage is a content-addressed store for dag-cbor encoded blocks,
// backed by an ipfs blockstore. Blocks are addressed by CIDv1 over a
// blake2b-256 hash and are never mutated in place.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-datastore"
	blockstore "github.com/ipfs/go-ipfs-blockstore"
	cbornode "github.com/ipfs/go-ipld-cbor"
	mh "github.com/multiformats/go-multihash"
	cbg "github.com/whyrusleeping/cbor-gen"
)

// DefaultHashFunction addresses every block written by this store.
const DefaultHashFunction = uint64(mh.BLAKE2B_MIN + 31)

// ErrNotFound is returned when no block matches a requested Cid.
var ErrNotFound = errors.New("block not found")

// SerializationError wraps de/serialization failures so callers can tell bad
// bytes apart from a broken store.
type SerializationError struct {
	error
}

// Storage stores blocks by the content identifier derived from their bytes.
type Storage struct {
	blockstore blockstore.Blockstore
}

var _ cbornode.IpldStore = (*Storage)(nil)

// NewStorage creates a Storage over the given blockstore.
func NewStorage(bs blockstore.Blockstore) *Storage {
	return &Storage{blockstore: bs}
}

// NewMemory returns a Storage over an in-memory map datastore.
func NewMemory() *Storage {
	return NewStorage(blockstore.NewBlockstore(datastore.NewMapDatastore()))
}

// PutRaw writes raw bytes under the content identifier derived from them and
// returns that identifier.
func (s *Storage) PutRaw(ctx context.Context, codec uint64, hashAlg uint64, data []byte) (cid.Cid, error) {
	c, err := cid.NewPrefixV1(codec, hashAlg).Sum(data)
	if err != nil {
		return cid.Undef, err
	}
	blk, err := blocks.NewBlockWithCid(data, c)
	if err != nil {
		return cid.Undef, err
	}
	if err := s.blockstore.Put(ctx, blk); err != nil {
		return cid.Undef, err
	}
	return c, nil
}

// GetRaw reads back the bytes a content identifier names.
func (s *Storage) GetRaw(ctx context.Context, c cid.Cid) ([]byte, error) {
	blk, err := s.blockstore.Get(ctx, c)
	if err == blockstore.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return blk.RawData(), nil
}

// Put implements cbornode.IpldStore for cbor-gen marshalers.
func (s *Storage) Put(ctx context.Context, v interface{}) (cid.Cid, error) {
	m, ok := v.(cbg.CBORMarshaler)
	if !ok {
		return cid.Undef, SerializationError{fmt.Errorf("object of type %T cannot marshal itself", v)}
	}
	buf := new(bytes.Buffer)
	if err := m.MarshalCBOR(buf); err != nil {
		return cid.Undef, SerializationError{err}
	}
	return s.PutRaw(ctx, uint64(cid.DagCBOR), DefaultHashFunction, buf.Bytes())
}

// Get implements cbornode.IpldStore.
func (s *Storage) Get(ctx context.Context, c cid.Cid, out interface{}) error {
	raw, err := s.GetRaw(ctx, c)
	if err != nil {
		return err
	}
	u, ok := out.(cbg.CBORUnmarshaler)
	if !ok {
		return SerializationError{fmt.Errorf("object of type %T cannot unmarshal itself", out)}
	}
	if err := u.UnmarshalCBOR(bytes.NewReader(raw)); err != nil {
		return SerializationError{err}
	}
	return nil
}
