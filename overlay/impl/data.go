package impl

import (
	"time"

	"go.dedis.ch/chord/overlay/impl/ring"
	"go.dedis.ch/chord/storage"
	"go.dedis.ch/chord/types"
	"golang.org/x/xerrors"
)

// Put implements overlay.DataStore
func (net *network) Put(name string, value []byte) (uint64, error) {
	net.mu.Lock()
	defer net.mu.Unlock()

	start := time.Now()

	if len(net.nodes) == 0 {
		err := xerrors.Errorf("put %q on empty overlay: %w", name, types.ErrNodeNotFound)
		net.record(types.EventPut, 0, 0, 0, start, err)
		return 0, err
	}

	wrapped, err := net.codec.Wrap(value)
	if err != nil {
		err = xerrors.Errorf("put %q: wrap: %w", name, err)
		net.record(types.EventPut, 0, 0, 0, start, err)
		return 0, err
	}

	key := ring.Hash(name, net.m)
	owner, hops := net.entryNode().put(name, storage.Item{Key: key, Value: wrapped})

	net.record(types.EventPut, owner, key, hops, start, nil)
	return owner, nil
}

// Lookup implements overlay.DataStore
func (net *network) Lookup(name string) ([]byte, error) {
	net.mu.Lock()
	defer net.mu.Unlock()

	start := time.Now()

	if len(net.nodes) == 0 {
		err := xerrors.Errorf("lookup %q on empty overlay: %w", name, types.ErrNodeNotFound)
		net.record(types.EventLookup, 0, 0, 0, start, err)
		return nil, err
	}

	key := ring.Hash(name, net.m)
	entry := net.entryNode()

	it, owner, hops, err := entry.get(name, key)
	entry.lookups++
	entry.hopTotal += uint64(hops)

	if err != nil {
		err = xerrors.Errorf("lookup %q: %w", name, types.ErrNameNotFound)
		net.record(types.EventLookup, owner, key, hops, start, err)
		return nil, err
	}

	value, err := net.codec.Unwrap(it.Value)
	if err != nil {
		err = xerrors.Errorf("lookup %q: unwrap: %w", name, err)
		net.record(types.EventLookup, owner, key, hops, start, err)
		return nil, err
	}

	net.record(types.EventLookup, owner, key, hops, start, nil)
	return value, nil
}

// Delete implements overlay.DataStore
func (net *network) Delete(name string) error {
	net.mu.Lock()
	defer net.mu.Unlock()

	start := time.Now()

	if len(net.nodes) == 0 {
		err := xerrors.Errorf("delete %q on empty overlay: %w", name, types.ErrNodeNotFound)
		net.record(types.EventDelete, 0, 0, 0, start, err)
		return err
	}

	key := ring.Hash(name, net.m)
	owner, hops := net.entryNode().findSuccessor(key)

	target, ok := net.resolve(owner)
	if !ok {
		net.danglingRef("delete", owner)
		err := xerrors.Errorf("delete %q: %w", name, types.ErrNameNotFound)
		net.record(types.EventDelete, owner, key, hops, start, err)
		return err
	}

	if err := target.store.Delete(name); err != nil {
		err = xerrors.Errorf("delete %q: %w", name, types.ErrNameNotFound)
		net.record(types.EventDelete, owner, key, hops, start, err)
		return err
	}

	net.record(types.EventDelete, owner, key, hops, start, nil)
	return nil
}
