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
)

// MakeSigningBlock encodes ID-pairs into a complete signing block, ready to be
// inserted immediately before the central directory.
func MakeSigningBlock(pairs []IDPair) []byte {
	var inner int
	for _, pair := range pairs {
		inner += 8 + int(pair.Len())
	}
	block := make([]byte, 8+inner+24)
	// length prefix on signing block, includes the magic suffix but not itself
	binary.LittleEndian.PutUint64(block, uint64(inner+24))
	pos := 8
	for _, pair := range pairs {
		binary.LittleEndian.PutUint64(block[pos:], pair.Len())
		binary.LittleEndian.PutUint32(block[pos+8:], pair.ID)
		copy(block[pos+12:], pair.Value)
		pos += 8 + int(pair.Len())
	}
	// magic suffix
	suffix := block[pos:]
	copy(suffix, block[:8]) // length again
	copy(suffix[8:], SigMagic)
	return block
}

// SignerV2 holds the parts of a v2 signer that are carried through encoding.
// Signatures and attributes are emitted empty.
type SignerV2 struct {
	Digests      []IDPair
	Certificates [][]byte
	PublicKey    []byte
}

// MarshalSignersV2 encodes a v2 signature block holding the given signers
func MarshalSignersV2(signers []SignerV2) []byte {
	m := new(marshaller)
	seq := m.begin()
	for _, s := range signers {
		signer := m.begin()
		signedData := m.begin()
		digests := m.begin()
		for _, d := range s.Digests {
			digest := m.begin()
			m.uint32(d.ID)
			m.bytes(d.Value)
			m.end(digest)
		}
		m.end(digests)
		certs := m.begin()
		for _, cert := range s.Certificates {
			m.bytes(cert)
		}
		m.end(certs)
		m.end(m.begin()) // attributes
		m.end(signedData)
		m.end(m.begin()) // signatures
		m.bytes(s.PublicKey)
		m.end(signer)
	}
	m.end(seq)
	return m.buf
}

type marshaller struct {
	buf []byte
}

// begin reserves a uint32 length prefix and returns its position
func (m *marshaller) begin() int {
	pos := len(m.buf)
	m.buf = append(m.buf, 0, 0, 0, 0)
	return pos
}

// end fills in the length prefix reserved at pos
func (m *marshaller) end(pos int) {
	binary.LittleEndian.PutUint32(m.buf[pos:], uint32(len(m.buf)-pos-4))
}

func (m *marshaller) uint32(v uint32) {
	m.buf = binary.LittleEndian.AppendUint32(m.buf, v)
}

func (m *marshaller) bytes(d []byte) {
	m.buf = binary.LittleEndian.AppendUint32(m.buf, uint32(len(d)))
	m.buf = append(m.buf, d...)
}
