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
	"errors"
	"fmt"
	"sort"
)

// Code is the outcome of a verification. Zero means untrusted or
// unrecognized; every other value identifies a known origin.
type Code uint8

const Untrusted Code = 0

// Entry maps one certificate fingerprint to a trust code
type Entry struct {
	Fingerprint string
	Code        Code
	Name        string
}

// Table is an immutable mapping of certificate fingerprints to trust codes.
// It is safe for concurrent use.
type Table struct {
	alg   Algorithm
	codes map[string]Code
	names map[Code]string
}

// builtin origins recognized when no table is configured
var builtinEntries = []Entry{
	{Fingerprint: "79F5947F1AC75D23F509DDC97A749DC7", Code: 1, Name: "primary"},
	{Fingerprint: "999014B8010E81DC52825616228ECEB9", Code: 2, Name: "secondary"},
}

var defaultTable = mustTable(MD5, builtinEntries)

// Default returns the built-in table
func Default() *Table {
	return defaultTable
}

func mustTable(alg Algorithm, entries []Entry) *Table {
	t, err := NewTable(alg, entries)
	if err != nil {
		panic(err)
	}
	return t
}

// NewTable validates entries and builds a table. Fingerprints must be hex of
// exactly the digest length of alg; a malformed entry is an error rather than
// an entry that can never match.
func NewTable(alg Algorithm, entries []Entry) (*Table, error) {
	if alg.HexLen() == 0 {
		return nil, fmt.Errorf("unsupported fingerprint algorithm %q", alg)
	}
	t := &Table{
		alg:   alg,
		codes: make(map[string]Code, len(entries)),
		names: make(map[Code]string),
	}
	for i, entry := range entries {
		if entry.Code == Untrusted {
			return nil, fmt.Errorf("trust entry #%d: code must be nonzero", i+1)
		}
		fp, err := alg.normalize(entry.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("trust entry #%d: %w", i+1, err)
		}
		if _, ok := t.codes[fp]; ok {
			return nil, fmt.Errorf("trust entry #%d: duplicate fingerprint %s", i+1, fp)
		}
		t.codes[fp] = entry.Code
		if entry.Name != "" {
			t.names[entry.Code] = entry.Name
		}
	}
	if len(t.codes) == 0 {
		return nil, errors.New("trust table is empty")
	}
	return t, nil
}

// Algorithm returns the digest algorithm the table is keyed by
func (t *Table) Algorithm() Algorithm {
	return t.alg
}

// Fingerprint computes the lookup key for a certificate
func (t *Table) Fingerprint(cert []byte) string {
	return t.alg.Fingerprint(cert)
}

// Lookup maps a certificate to its trust code
func (t *Table) Lookup(cert []byte) Code {
	return t.LookupFingerprint(t.Fingerprint(cert))
}

// LookupFingerprint maps an uppercase hex fingerprint to its trust code
func (t *Table) LookupFingerprint(fp string) Code {
	return t.codes[fp]
}

// Name returns the configured name for a code, if any
func (t *Table) Name(code Code) string {
	if code == Untrusted {
		return "untrusted"
	}
	return t.names[code]
}

// Entries lists the table contents ordered by code then fingerprint
func (t *Table) Entries() []Entry {
	entries := make([]Entry, 0, len(t.codes))
	for fp, code := range t.codes {
		entries = append(entries, Entry{Fingerprint: fp, Code: code, Name: t.names[code]})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Code != entries[j].Code {
			return entries[i].Code < entries[j].Code
		}
		return entries[i].Fingerprint < entries[j].Fingerprint
	})
	return entries
}
