/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package wal

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/krotik/graphdb/graph/util"
)

/*
lengthPrefixSize is the size in bytes of the big-endian record length
header that precedes every serialized record (§6 "4-byte big-endian
size").
*/
const lengthPrefixSize = 4

/*
WAL is the append-only durable log of committed transactions. A single WAL
owns one open file handle for its entire process lifetime (§5 "Resource
lifetime"); the Transaction Coordinator is its only writer.
*/
type WAL struct {
	mu   sync.Mutex
	path string
	file *os.File
}

/*
Open opens (creating if necessary) the log file at path for appending and
replay. Mirrors file.NewTransactionManager's always-create-if-missing
behaviour in the teacher repo, but never truncates an existing log - unlike
a transaction log that is rebuilt from a storage file on every startup,
this WAL is itself the durable record.
*/
func Open(path string) (*WAL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return nil, util.New(util.ErrDurability, err.Error())
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0660)
	if err != nil {
		return nil, util.New(util.ErrDurability, err.Error())
	}

	return &WAL{path: path, file: f}, nil
}

/*
Append writes a record and fsyncs before returning (§4.4). At-most-one
commit is ever in flight per invocation since the coordinator serializes
callers before they reach the WAL.
*/
func (w *WAL) Append(rec *Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec.FormatVersion = FormatVersion

	payload, err := msgpack.Marshal(rec)
	if err != nil {
		return util.New(util.ErrDurability, err.Error())
	}

	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		return util.New(util.ErrDurability, err.Error())
	}

	var header [lengthPrefixSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))

	if _, err := w.file.Write(header[:]); err != nil {
		return util.New(util.ErrDurability, err.Error())
	}
	if _, err := w.file.Write(payload); err != nil {
		return util.New(util.ErrDurability, err.Error())
	}
	if err := w.file.Sync(); err != nil {
		return util.New(util.ErrDurability, err.Error())
	}

	return nil
}

/*
Replay reads every complete record from the beginning of the log in order
and invokes fn for each one. It stops cleanly at end-of-file or on an
incomplete trailing record - the incomplete tail is silently ignored, it
was never fsynced and so is indistinguishable from a record that never
happened (§4.4, §6).
*/
func (w *WAL) Replay(fn func(*Record) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.Open(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return util.New(util.ErrDurability, err.Error())
	}
	defer f.Close()

	recs, err := readRecords(f)
	if err != nil {
		return err
	}

	for i := range recs {
		if err := fn(&recs[i]); err != nil {
			return err
		}
	}

	return nil
}

/*
readRecords reads every complete record from r, stopping cleanly (without
error) at EOF or at a truncated trailing header/payload.
*/
func readRecords(r io.Reader) ([]Record, error) {
	var recs []Record

	for {
		var header [lengthPrefixSize]byte

		if _, err := io.ReadFull(r, header[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, util.New(util.ErrDurability, err.Error())
		}

		size := binary.BigEndian.Uint32(header[:])
		payload := make([]byte, size)

		if _, err := io.ReadFull(r, payload); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, util.New(util.ErrDurability, err.Error())
		}

		var rec Record
		if err := msgpack.Unmarshal(payload, &rec); err != nil {
			return nil, util.New(util.ErrCorruptRecord, err.Error())
		}

		if rec.FormatVersion > FormatVersion {
			return nil, util.New(util.ErrCorruptRecord, fmt.Sprintf(
				"wal: record format version %d is newer than the supported version %d",
				rec.FormatVersion, FormatVersion))
		}

		recs = append(recs, rec)
	}

	return recs, nil
}

/*
Truncate removes every record whose tx id is less than or equal to upToTxID.
Called after a snapshot has durably captured everything up to that point
(§4.4, §4.6.2 "Snapshot protocol").
*/
func (w *WAL) Truncate(upToTxID uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return util.New(util.ErrDurability, err.Error())
	}

	recs, err := readRecords(w.file)
	if err != nil {
		return err
	}

	var kept []Record
	for _, rec := range recs {
		if rec.TxID > upToTxID {
			kept = append(kept, rec)
		}
	}

	return w.rewrite(kept)
}

/*
Reset empties the log (§4.4 "test/administrative").
*/
func (w *WAL) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rewrite(nil)
}

/*
rewrite replaces the on-disk log with exactly recs, written to a temp file
and renamed into place so a crash mid-rewrite never leaves a half-written
log (the same temp-file-then-rename discipline used by Snapshot.create,
§4.5).
*/
func (w *WAL) rewrite(recs []Record) error {
	tmpPath := w.path + ".tmp"

	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0660)
	if err != nil {
		return util.New(util.ErrDurability, err.Error())
	}

	for _, rec := range recs {
		rec.FormatVersion = FormatVersion
		payload, err := msgpack.Marshal(&rec)
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return util.New(util.ErrDurability, err.Error())
		}

		var header [lengthPrefixSize]byte
		binary.BigEndian.PutUint32(header[:], uint32(len(payload)))

		if _, err := tmp.Write(header[:]); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return util.New(util.ErrDurability, err.Error())
		}
		if _, err := tmp.Write(payload); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return util.New(util.ErrDurability, err.Error())
		}
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return util.New(util.ErrDurability, err.Error())
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return util.New(util.ErrDurability, err.Error())
	}

	if err := w.file.Close(); err != nil {
		return util.New(util.ErrDurability, err.Error())
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		return util.New(util.ErrDurability, err.Error())
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_RDWR, 0660)
	if err != nil {
		return util.New(util.ErrDurability, err.Error())
	}
	w.file = f

	return nil
}

/*
Close releases the log's file handle.
*/
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.Sync(); err != nil {
		return util.New(util.ErrDurability, err.Error())
	}
	return w.file.Close()
}
