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
	"os"
	"path/filepath"
	"testing"

	"github.com/krotik/graphdb/graph/data"
)

func testRecord(txID uint64, nodeID string) *Record {
	return &Record{
		TxID:      txID,
		Timestamp: int64(txID),
		Ops: []Op{
			{Kind: OpPutNode, Node: data.NewNode(nodeID, []string{"User"}, map[string]data.Value{
				"name": data.String("alice"),
			})},
		},
	}
}

func TestAppendAndReplay(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "wal.log"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	for i, id := range []string{"n1", "n2", "n3"} {
		if err := w.Append(testRecord(uint64(i+1), id)); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	var got []uint64
	err = w.Replay(func(rec *Record) error {
		got = append(got, rec.TxID)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("expected replay order [1 2 3], got %v", got)
	}
}

func TestReplayEmptyLog(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "wal.log"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	called := false
	if err := w.Replay(func(rec *Record) error { called = true; return nil }); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("expected no records in a freshly opened log")
	}
}

func TestReplayMissingFile(t *testing.T) {
	dir := t.TempDir()
	// Open creates the file; simulate "never existed" by pointing Replay
	// reads at a sibling that truly does not exist.
	w := &WAL{path: filepath.Join(dir, "does-not-exist.log")}

	if err := w.Replay(func(rec *Record) error { return nil }); err != nil {
		t.Fatalf("expected a missing log to replay as empty, got %v", err)
	}
}

func TestReplayIgnoresIncompleteTrailingRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	w, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Append(testRecord(1, "n1")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	// Simulate a crash mid-append: a length header announcing a record that
	// was never fully written.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0660)
	if err != nil {
		t.Fatal(err)
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], 100)
	if _, err := f.Write(header[:]); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte{0x01, 0x02}); err != nil {
		t.Fatal(err)
	}
	f.Close()

	w2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w2.Close()

	var got []uint64
	if err := w2.Replay(func(rec *Record) error {
		got = append(got, rec.TxID)
		return nil
	}); err != nil {
		t.Fatalf("expected the incomplete tail to be ignored, got error %v", err)
	}

	if len(got) != 1 || got[0] != 1 {
		t.Errorf("expected only the complete record to replay, got %v", got)
	}
}

func TestTruncate(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "wal.log"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	for i, id := range []string{"n1", "n2", "n3"} {
		if err := w.Append(testRecord(uint64(i+1), id)); err != nil {
			t.Fatal(err)
		}
	}

	if err := w.Truncate(2); err != nil {
		t.Fatal(err)
	}

	var got []uint64
	w.Replay(func(rec *Record) error { got = append(got, rec.TxID); return nil })

	if len(got) != 1 || got[0] != 3 {
		t.Errorf("expected only tx 3 to survive truncate(2), got %v", got)
	}
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "wal.log"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.Append(testRecord(1, "n1"))

	if err := w.Reset(); err != nil {
		t.Fatal(err)
	}

	called := false
	w.Replay(func(rec *Record) error { called = true; return nil })
	if called {
		t.Error("expected Reset to empty the log")
	}
}
