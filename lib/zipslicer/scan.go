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
	"errors"
	"fmt"
	"io"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrTruncated = errors.New("truncated")
	ErrIO        = errors.New("i/o failure")
)

// ScanBackward searches the byte range [start, end) of r for the last
// occurrence of needle, reading windows of the given size from the end toward
// the start. Consecutive windows overlap by len(needle)-1 bytes so that a
// match straddling a window boundary is still found. Returns the absolute
// offset of the match or ErrNotFound.
func ScanBackward(r io.ReaderAt, start, end int64, window int, needle []byte) (int64, error) {
	if len(needle) == 0 {
		return 0, errors.New("empty search pattern")
	}
	if window < 2*len(needle) {
		window = 2 * len(needle)
	}
	if start < 0 {
		start = 0
	}
	overlap := int64(len(needle) - 1)
	buf := make([]byte, window)
	for end-start >= int64(len(needle)) {
		pos := end - int64(window)
		if pos < start {
			pos = start
		}
		chunk := buf[:end-pos]
		if _, err := r.ReadAt(chunk, pos); err != nil {
			return 0, fmt.Errorf("%w: reading %d bytes at %d: %w", ErrIO, len(chunk), pos, err)
		}
		if i := bytes.LastIndex(chunk, needle); i >= 0 {
			return pos + int64(i), nil
		}
		if pos == start {
			break
		}
		// every iteration moves end back by window-overlap > 0 bytes
		end = pos + overlap
	}
	return 0, ErrNotFound
}
