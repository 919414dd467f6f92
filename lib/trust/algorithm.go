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

package trust

import (
	"crypto/md5"
	_ "crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Algorithm names the digest used to fingerprint certificates
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA256 Algorithm = "sha256"
)

// ParseAlgorithm accepts an algorithm name, defaulting to MD5 when empty
func ParseAlgorithm(name string) (Algorithm, error) {
	switch alg := Algorithm(strings.ToLower(name)); alg {
	case "":
		return MD5, nil
	case MD5, SHA256:
		return alg, nil
	default:
		return "", fmt.Errorf("unsupported fingerprint algorithm %q", name)
	}
}

// HexLen is the length of a fingerprint rendered as hex
func (a Algorithm) HexLen() int {
	switch a {
	case MD5:
		return 2 * md5.Size
	case SHA256:
		return digest.SHA256.Size() * 2
	}
	return 0
}

// Fingerprint renders the digest of blob as uppercase hex
func (a Algorithm) Fingerprint(blob []byte) string {
	switch a {
	case SHA256:
		return strings.ToUpper(digest.SHA256.FromBytes(blob).Encoded())
	default:
		sum := md5.Sum(blob)
		return strings.ToUpper(hex.EncodeToString(sum[:]))
	}
}

// normalize validates a configured fingerprint and returns it in uppercase
func (a Algorithm) normalize(fp string) (string, error) {
	fp = strings.ToUpper(strings.TrimSpace(fp))
	if len(fp) != a.HexLen() {
		return "", fmt.Errorf("fingerprint %q has %d hex digits, %s needs %d", fp, len(fp), a, a.HexLen())
	}
	if _, err := hex.DecodeString(fp); err != nil {
		return "", fmt.Errorf("fingerprint %q: %w", fp, err)
	}
	return fp, nil
}
