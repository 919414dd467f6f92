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
	"io"

	"github.com/sassoftware/apktrust/lib/zipslicer"
)

const (
	// SigMagic terminates an APK signing block
	SigMagic = "APK Sig Block 42"

	// MagicSearchWindow is the read size used when scanning for SigMagic
	MagicSearchWindow = 128

	// bytes of the declared size that are not part of the returned payload
	blockOverhead = 20
)

// SigningBlock is the region between the last file entry and the central
// directory of a signed package.
type SigningBlock struct {
	// Size as declared immediately before the magic. It counts everything
	// after the leading size field up to and including the magic.
	Size uint64
	// Offset of the magic within the file
	MagicOffset int64
	// Raw ID-pair region
	Payload []byte
}

// Pairs decodes the ID-pair region of the block
func (b *SigningBlock) Pairs() ([]IDPair, error) {
	return ParsePairs(b.Payload)
}

// FindSigningBlock scans backward from the start of the central directory for
// the signing block magic and reads the block that it terminates.
func FindSigningBlock(r io.ReaderAt, size, dirLoc int64) (*SigningBlock, error) {
	return findSigningBlock(r, size, dirLoc, MagicSearchWindow)
}

func findSigningBlock(r io.ReaderAt, fileSize, dirLoc int64, window int) (*SigningBlock, error) {
	if dirLoc > fileSize {
		return nil, fmt.Errorf("central directory offset %d beyond end of file: %w", dirLoc, ErrInvalidData)
	}
	magicLoc, err := zipslicer.ScanBackward(r, 0, dirLoc, window, []byte(SigMagic))
	if err != nil {
		return nil, fmt.Errorf("APK signing block magic: %w", err)
	}
	if magicLoc < 8 {
		return nil, fmt.Errorf("APK signing block size at %d: %w", magicLoc-8, ErrTruncated)
	}
	var sizeb [8]byte
	if _, err := r.ReadAt(sizeb[:], magicLoc-8); err != nil {
		return nil, fmt.Errorf("%w: reading APK signing block size: %w", ErrIO, err)
	}
	blockSize := binary.LittleEndian.Uint64(sizeb[:])
	switch {
	case blockSize < blockOverhead:
		return nil, fmt.Errorf("APK signing block size %d too small: %w", blockSize, ErrInvalidData)
	case blockSize-16 > uint64(fileSize):
		return nil, fmt.Errorf("APK signing block size %d exceeds file size %d: %w", blockSize, fileSize, ErrInvalidData)
	case blockSize > uint64(magicLoc)+16:
		return nil, fmt.Errorf("APK signing block size %d extends before start of file: %w", blockSize, ErrInvalidData)
	}
	start := magicLoc + 16 - int64(blockSize)
	payload := make([]byte, blockSize-blockOverhead)
	if _, err := r.ReadAt(payload, start); err != nil {
		return nil, fmt.Errorf("%w: reading APK signing block: %w", ErrIO, err)
	}
	return &SigningBlock{
		Size:        blockSize,
		MagicOffset: magicLoc,
		Payload:     payload,
	}, nil
}
