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

// implement just enough of the uint32-prefixed structure of a APK Signature
// Scheme v2 Block to reach the first certificate of the first signer
// https://source.android.com/security/apksigning/v2#apk-signature-scheme-v2-block-format

type fieldReader struct {
	blob   []byte
	offset int
}

func (f *fieldReader) uint32(name string) (uint32, error) {
	if len(f.blob)-f.offset < 4 {
		return 0, fmt.Errorf("%s length at %d: %w", name, f.offset, ErrTruncated)
	}
	v := binary.LittleEndian.Uint32(f.blob[f.offset:])
	f.offset += 4
	return v, nil
}

func (f *fieldReader) skip(name string, n uint32) error {
	if uint64(len(f.blob)-f.offset) < uint64(n) {
		return fmt.Errorf("%s of %d bytes at %d: %w", name, n, f.offset, ErrTruncated)
	}
	f.offset += int(n)
	return nil
}

// FirstCertificate returns the raw DER of the first certificate of the first
// signer in a v2 signature block. Fields are read in fixed order: signer
// sequence, signer, signed data, digests (skipped), certificates.
func FirstCertificate(blob []byte) ([]byte, error) {
	if len(blob) < 8 {
		return nil, fmt.Errorf("v2 signature block of %d bytes: %w", len(blob), ErrTruncated)
	}
	f := &fieldReader{blob: blob}
	if _, err := f.uint32("signer sequence"); err != nil {
		return nil, err
	}
	signerSize, err := f.uint32("signer")
	if err != nil {
		return nil, err
	}
	if uint64(len(blob)-f.offset) < uint64(signerSize) {
		return nil, fmt.Errorf("signer of %d bytes: %w", signerSize, ErrInvalidData)
	}
	if _, err := f.uint32("signed data"); err != nil {
		return nil, err
	}
	digestsSize, err := f.uint32("digests")
	if err != nil {
		return nil, err
	}
	if err := f.skip("digests", digestsSize); err != nil {
		return nil, err
	}
	certsSize, err := f.uint32("certificates")
	if err != nil {
		return nil, err
	}
	if certsSize < 4 {
		return nil, fmt.Errorf("certificates of %d bytes: %w", certsSize, ErrInvalidData)
	}
	// skip the per-certificate length prefix
	start := f.offset + 4
	end := uint64(f.offset) + uint64(certsSize)
	if end > uint64(len(blob)) {
		return nil, fmt.Errorf("certificates of %d bytes at %d: %w", certsSize, f.offset, ErrTruncated)
	}
	cert := make([]byte, certsSize-4)
	copy(cert, blob[start:end])
	return cert, nil
}
