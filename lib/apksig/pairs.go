//
// Copyright (c) SAS Institute Inc.
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
//

package apksig

import (
	"encoding/binary"
	"fmt"
)

// SigApkV2 identifies the APK Signature Scheme v2 block
const SigApkV2 = 0x7109871a

// IDPair is one identifier-tagged value from a signing block
type IDPair struct {
	ID    uint32
	Value []byte
}

// Len returns the length prefix of the pair as stored
func (p IDPair) Len() uint64 {
	return 4 + uint64(len(p.Value))
}

// ParsePairs decodes a sequence of uint64-length-prefixed ID-pairs. Decoding
// stops when fewer than 8 bytes remain.
func ParsePairs(blob []byte) ([]IDPair, error) {
	pairs := []IDPair{}
	for offset := 0; len(blob) >= 8; offset += 8 {
		partSize := binary.LittleEndian.Uint64(blob)
		blob = blob[8:]
		if partSize < 4 {
			return nil, fmt.Errorf("ID-pair at %d: length %d too small: %w", offset, partSize, ErrInvalidData)
		} else if partSize > uint64(len(blob)) {
			return nil, fmt.Errorf("ID-pair at %d: length %d exceeds remaining %d bytes: %w", offset, partSize, len(blob), ErrInvalidData)
		}
		pairs = append(pairs, IDPair{
			ID:    binary.LittleEndian.Uint32(blob),
			Value: blob[4:partSize:partSize],
		})
		blob = blob[partSize:]
		offset += int(partSize)
	}
	return pairs, nil
}

// FindPair returns the value of the first pair with the given ID
func FindPair(pairs []IDPair, id uint32) ([]byte, bool) {
	for _, pair := range pairs {
		if pair.ID == id {
			return pair.Value, true
		}
	}
	return nil, false
}
