/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package snapshot implements the Snapshot component (§4.5): an atomic dump
and load of the Store's contents plus the last-committed transaction id,
used together with WAL.truncate to bound replay time on startup.
*/
package snapshot

import (
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/krotik/graphdb/graph/data"
	"github.com/krotik/graphdb/graph/util"
	"github.com/krotik/graphdb/index"
	"github.com/krotik/graphdb/store"
)

/*
FormatVersion identifies the wire layout of both snapshot files, written
alongside the payload so that an engine reading an older snapshot can
detect and report a mismatch instead of silently misinterpreting it (§6).
*/
const FormatVersion = 1

/*
DataFilename and MetaFilename are the two files a snapshot is split
across (§6 "On-disk layout").
*/
const (
	DataFilename = "snapshot.bin"
	MetaFilename = "snapshot.meta"
)

/*
Metadata is the small container persisted in the metadata file.
*/
type Metadata struct {
	FormatVersion int
	LastTxID      uint64
	Timestamp     int64
}

/*
payload is the container persisted in the data file.
*/
type payload struct {
	FormatVersion int
	Nodes         []*data.Node
	Edges         []*data.Edge
}

/*
Create atomically dumps every live node and edge in st, together with
lastTxID, into dir. Both files are written to temporary names and renamed
into place as the final step, so a reader never observes a half-written
snapshot (§4.5).
*/
func Create(dir string, st *store.Store, lastTxID uint64) error {
	if err := os.MkdirAll(dir, 0770); err != nil {
		return util.New(util.ErrSnapshot, err.Error())
	}

	dataBytes, err := msgpack.Marshal(&payload{
		FormatVersion: FormatVersion,
		Nodes:         st.AllNodes(),
		Edges:         st.AllEdges(),
	})
	if err != nil {
		return util.New(util.ErrSnapshot, err.Error())
	}

	metaBytes, err := msgpack.Marshal(&Metadata{
		FormatVersion: FormatVersion,
		LastTxID:      lastTxID,
		Timestamp:     time.Now().UnixNano(),
	})
	if err != nil {
		return util.New(util.ErrSnapshot, err.Error())
	}

	dataPath := filepath.Join(dir, DataFilename)
	metaPath := filepath.Join(dir, MetaFilename)

	if err := writeAtomic(dataPath, dataBytes); err != nil {
		return err
	}
	// The data file is the larger, riskier write; the meta file is renamed
	// into place last so its presence is the signal that a complete,
	// consistent pair exists (§4.5 "either both files are present and
	// consistent, or neither is used").
	if err := writeAtomic(metaPath, metaBytes); err != nil {
		return err
	}

	return nil
}

/*
writeAtomic writes data to a temp file in the same directory as path,
fsyncs it, and renames it over path.
*/
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0660)
	if err != nil {
		return util.New(util.ErrSnapshot, err.Error())
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return util.New(util.ErrSnapshot, err.Error())
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return util.New(util.ErrSnapshot, err.Error())
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return util.New(util.ErrSnapshot, err.Error())
	}
	if err := os.Rename(tmp, path); err != nil {
		return util.New(util.ErrSnapshot, err.Error())
	}

	return nil
}

/*
Load restores a Store and rebuilds a fresh set of Indexes from the
snapshot in dir. found is false (with a nil error) if no complete snapshot
exists there yet - the normal state of a brand-new data directory.
*/
func Load(dir string) (st *store.Store, ix *index.Indexes, lastTxID uint64, found bool, err error) {
	dataPath := filepath.Join(dir, DataFilename)
	metaPath := filepath.Join(dir, MetaFilename)

	dataBytes, derr := os.ReadFile(dataPath)
	metaBytes, merr := os.ReadFile(metaPath)

	if derr != nil || merr != nil {
		return nil, nil, 0, false, nil
	}

	var meta Metadata
	if err := msgpack.Unmarshal(metaBytes, &meta); err != nil {
		return nil, nil, 0, false, util.New(util.ErrSnapshot, err.Error())
	}
	if meta.FormatVersion > FormatVersion {
		return nil, nil, 0, false, util.New(util.ErrSnapshot,
			"snapshot metadata format version is newer than this engine supports")
	}

	var p payload
	if err := msgpack.Unmarshal(dataBytes, &p); err != nil {
		return nil, nil, 0, false, util.New(util.ErrSnapshot, err.Error())
	}
	if p.FormatVersion > FormatVersion {
		return nil, nil, 0, false, util.New(util.ErrSnapshot,
			"snapshot data format version is newer than this engine supports")
	}

	st = store.New()
	ix = index.New()

	for _, n := range p.Nodes {
		st.PutNode(n)
		ix.IndexNode(n)
	}
	for _, e := range p.Edges {
		st.PutEdge(e)
		ix.IndexEdge(e)
	}

	return st, ix, meta.LastTxID, true, nil
}
