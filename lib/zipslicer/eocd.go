/*
 * Copyright (c) SAS Institute Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package zipslicer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	directoryEndSignature = 0x06054b50
	directoryEndLen       = 22

	// EndSearchWindow is the read size used when scanning for the end record
	EndSearchWindow = 4096
)

var directoryEndMagic = []byte{0x50, 0x4b, 0x05, 0x06}

// zipEndRecord is the fixed part of the end of central directory record
type zipEndRecord struct {
	Signature    uint32
	DiskNumber   uint16
	DiskCD       uint16
	DiskCDCount  uint16
	TotalCDCount uint16
	CDSize       uint32
	CDOffset     uint32
	CommentLen   uint16
}

// EndRecord is a decoded end of central directory record
type EndRecord struct {
	Signature    uint32
	DiskNumber   uint16
	DiskCD       uint16
	DiskCDCount  uint16
	TotalCDCount uint16
	CDSize       uint32
	CDOffset     uint32
	CommentLen   uint16
	Comment      []byte
}

// FindEndRecord locates the end of central directory record by scanning
// backward from the end of the file. A candidate signature is accepted only if
// its comment ends exactly at end of file, so signature bytes inside the
// comment are skipped. It returns the decoded record and the absolute offset
// at which it begins.
func FindEndRecord(r io.ReaderAt, size int64) (*EndRecord, int64, error) {
	return findEndRecord(r, size, EndSearchWindow)
}

func findEndRecord(r io.ReaderAt, size int64, window int) (*EndRecord, int64, error) {
	searchEnd := size
	for {
		pos, err := ScanBackward(r, 0, searchEnd, window, directoryEndMagic)
		if err != nil {
			return nil, 0, fmt.Errorf("zip end of central directory: %w", err)
		}
		ok, err := endsAtEOF(r, size, pos)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			end, err := ReadEndRecord(r, size, pos)
			if err != nil {
				return nil, 0, err
			}
			return end, pos, nil
		}
		// keep looking before this candidate; searchEnd shrinks by at least 1
		searchEnd = pos + int64(len(directoryEndMagic)) - 1
	}
}

// endsAtEOF reports whether a record at pos with its declared comment fills
// the file exactly
func endsAtEOF(r io.ReaderAt, size, pos int64) (bool, error) {
	if size-pos < directoryEndLen {
		return false, nil
	}
	var lenb [2]byte
	if _, err := r.ReadAt(lenb[:], pos+directoryEndLen-2); err != nil {
		return false, fmt.Errorf("%w: reading zip comment length: %w", ErrIO, err)
	}
	commentLen := int64(binary.LittleEndian.Uint16(lenb[:]))
	return pos+directoryEndLen+commentLen == size, nil
}

// ReadEndRecord decodes the end of central directory record at pos, including
// the trailing comment.
func ReadEndRecord(r io.ReaderAt, size, pos int64) (*EndRecord, error) {
	if pos < 0 || size-pos < directoryEndLen {
		return nil, fmt.Errorf("zip end of central directory at %d: %w", pos, ErrTruncated)
	}
	var endb [directoryEndLen]byte
	if _, err := r.ReadAt(endb[:], pos); err != nil {
		return nil, fmt.Errorf("%w: reading end of central directory: %w", ErrIO, err)
	}
	var raw zipEndRecord
	if err := binary.Read(bytes.NewReader(endb[:]), binary.LittleEndian, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding end of central directory: %w", ErrIO, err)
	}
	if raw.Signature != directoryEndSignature {
		return nil, fmt.Errorf("zip end of central directory at %d: %w", pos, ErrNotFound)
	}
	commentPos := pos + directoryEndLen
	if size-commentPos < int64(raw.CommentLen) {
		return nil, fmt.Errorf("zip comment of %d bytes at %d: %w", raw.CommentLen, commentPos, ErrTruncated)
	}
	comment := make([]byte, raw.CommentLen)
	if _, err := r.ReadAt(comment, commentPos); err != nil {
		return nil, fmt.Errorf("%w: reading zip comment: %w", ErrIO, err)
	}
	return &EndRecord{
		Signature:    raw.Signature,
		DiskNumber:   raw.DiskNumber,
		DiskCD:       raw.DiskCD,
		DiskCDCount:  raw.DiskCDCount,
		TotalCDCount: raw.TotalCDCount,
		CDSize:       raw.CDSize,
		CDOffset:     raw.CDOffset,
		CommentLen:   raw.CommentLen,
		Comment:      comment,
	}, nil
}

// Bytes encodes the record in its on-disk form
func (e *EndRecord) Bytes() []byte {
	raw := zipEndRecord{
		Signature:    directoryEndSignature,
		DiskNumber:   e.DiskNumber,
		DiskCD:       e.DiskCD,
		DiskCDCount:  e.DiskCDCount,
		TotalCDCount: e.TotalCDCount,
		CDSize:       e.CDSize,
		CDOffset:     e.CDOffset,
		CommentLen:   uint16(len(e.Comment)),
	}
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, raw)
	buf.Write(e.Comment)
	return buf.Bytes()
}
