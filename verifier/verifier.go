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

package verifier

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/sassoftware/apktrust/lib/apksig"
	"github.com/sassoftware/apktrust/lib/trust"
	"github.com/sassoftware/apktrust/lib/zipslicer"
)

// Verifier establishes the origin of a package from the certificate in its
// APK Signature Scheme v2 block. It holds no mutable state and may be shared
// between goroutines.
type Verifier struct {
	table  *trust.Table
	logger zerolog.Logger
}

// New creates a verifier. A nil table selects the built-in one.
func New(table *trust.Table, logger zerolog.Logger) *Verifier {
	if table == nil {
		table = trust.Default()
	}
	return &Verifier{table: table, logger: logger}
}

// Result holds every stage's output of an inspection
type Result struct {
	Code        trust.Code
	Size        int64
	End         *zipslicer.EndRecord
	EndOffset   int64
	Block       *apksig.SigningBlock
	Pairs       []apksig.IDPair
	Certificate []byte
	Fingerprint string
}

// VerifyPath opens the package at path and returns its trust code. Any
// failure to open or parse the file yields trust.Untrusted.
func (v *Verifier) VerifyPath(path string) trust.Code {
	start := time.Now()
	res, err := v.inspectPath(path)
	code := trust.Untrusted
	if err == nil {
		code = res.Code
	}
	observe(start, code, err)
	logger := v.logger.With().Str("path", path).Logger()
	switch {
	case err != nil:
		logger.Debug().Err(err).Str("kind", errorKind(err)).Msg("package failed verification")
	case code == trust.Untrusted:
		logger.Info().Str("fingerprint", res.Fingerprint).Msg("package signer not recognized")
	default:
		logger.Debug().
			Str("fingerprint", res.Fingerprint).
			Uint8("code", uint8(code)).
			Str("origin", v.table.Name(code)).
			Msg("package signer recognized")
	}
	return code
}

// VerifySource resolves the package path through src and verifies it
func (v *Verifier) VerifySource(src PathSource) trust.Code {
	path, err := src.PackagePath()
	if err != nil {
		observe(time.Now(), trust.Untrusted, err)
		v.logger.Warn().Err(err).Str("kind", errorKind(err)).Msg("resolving package path")
		return trust.Untrusted
	}
	return v.VerifyPath(path)
}

func (v *Verifier) inspectPath(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apksig.ErrIO, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apksig.ErrIO, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file: %w", path, apksig.ErrInvalidData)
	}
	return v.Inspect(f, fi.Size())
}

// Inspect runs the whole pipeline over r. On error the returned result holds
// whatever was decoded before the failing stage.
func (v *Verifier) Inspect(r io.ReaderAt, size int64) (*Result, error) {
	res := &Result{Size: size}
	var err error
	res.End, res.EndOffset, err = zipslicer.FindEndRecord(r, size)
	if err != nil {
		return res, err
	}
	res.Block, err = apksig.FindSigningBlock(r, size, int64(res.End.CDOffset))
	if err != nil {
		return res, err
	}
	res.Pairs, err = res.Block.Pairs()
	if err != nil {
		return res, err
	}
	v2block, ok := apksig.FindPair(res.Pairs, apksig.SigApkV2)
	if !ok {
		return res, fmt.Errorf("no APK Signature Scheme v2 block: %w", apksig.ErrNotFound)
	}
	res.Certificate, err = apksig.FirstCertificate(v2block)
	if err != nil {
		return res, err
	}
	res.Fingerprint = v.table.Fingerprint(res.Certificate)
	res.Code = v.table.LookupFingerprint(res.Fingerprint)
	return res, nil
}

// ErrNoPath is returned by a PathSource that cannot locate the package
var ErrNoPath = errors.New("package path not available")
