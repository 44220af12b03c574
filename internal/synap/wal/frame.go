// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wal

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"hash/crc32"
	"io"
)

// crc32cTable is the Castagnoli polynomial table — what "crc32c" names in
// the frame layout.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// frameHeader is {len: u32, crc32c: u32, offset: u64} preceding the
// gob-encoded Record body.
const frameHeaderSize = 4 + 4 + 8

// encodeRecord gob-encodes a Record body (without the frame header).
func encodeRecord(r *Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, fmt.Errorf("wal: encode record: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeRecord(body []byte) (*Record, error) {
	var r Record
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&r); err != nil {
		return nil, fmt.Errorf("wal: decode record: %w", err)
	}
	return &r, nil
}

// writeFrame writes {len, crc32c, offset, body} for r to w and returns the
// number of bytes written.
func writeFrame(w io.Writer, r *Record) (int, error) {
	body, err := encodeRecord(r)
	if err != nil {
		return 0, err
	}
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header[0:4], uint32(len(body)))
	binary.BigEndian.PutUint32(header[4:8], crc32.Checksum(body, crc32cTable))
	binary.BigEndian.PutUint64(header[8:16], r.Offset)
	n, err := w.Write(header)
	if err != nil {
		return n, err
	}
	m, err := w.Write(body)
	return n + m, err
}

// readFrame reads one frame from r, returning the record and the total
// number of bytes the frame occupied on disk. io.EOF (clean) or
// io.ErrUnexpectedEOF / a CRC mismatch on a short final frame both signal
// a torn tail that the recovery protocol truncates rather than treats as
// fatal corruption.
func readFrame(r io.Reader) (*Record, int64, error) {
	header := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, 0, err // io.EOF or io.ErrUnexpectedEOF: torn tail
	}
	length := binary.BigEndian.Uint32(header[0:4])
	wantCRC := binary.BigEndian.Uint32(header[4:8])
	offset := binary.BigEndian.Uint64(header[8:16])

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, 0, io.ErrUnexpectedEOF // short body: torn tail
	}
	frameLen := int64(frameHeaderSize) + int64(length)
	if gotCRC := crc32.Checksum(body, crc32cTable); gotCRC != wantCRC {
		return nil, frameLen, errCRCMismatch
	}
	rec, err := decodeRecord(body)
	if err != nil {
		return nil, frameLen, err
	}
	rec.Offset = offset
	return rec, frameLen, nil
}

var errCRCMismatch = fmt.Errorf("wal: crc32c mismatch")
