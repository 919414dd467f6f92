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
	"fmt"
	"strings"
)

// PathSource supplies the location of the package to verify, typically by
// asking the hosting runtime where the running application was loaded from.
type PathSource interface {
	PackagePath() (string, error)
}

// PathFunc adapts a function to PathSource
type PathFunc func() (string, error)

func (f PathFunc) PackagePath() (string, error) {
	return f()
}

// StaticPath is a PathSource for an already known path
type StaticPath string

func (p StaticPath) PackagePath() (string, error) {
	if p == "" {
		return "", ErrNoPath
	}
	return string(p), nil
}

const (
	manifestURLPrefix = "file:"
	manifestURLSuffix = "!/AndroidManifest.xml"
)

// ManifestURLSource derives the package path from the resource URL of the
// application's manifest, as reported by the class loader, e.g.
// "file:/data/app/com.example-1/base.apk!/AndroidManifest.xml"
type ManifestURLSource string

func (u ManifestURLSource) PackagePath() (string, error) {
	s := string(u)
	if !strings.HasPrefix(s, manifestURLPrefix) || !strings.HasSuffix(s, manifestURLSuffix) {
		return "", fmt.Errorf("unrecognized manifest URL %q: %w", s, ErrNoPath)
	}
	path := strings.TrimSuffix(strings.TrimPrefix(s, manifestURLPrefix), manifestURLSuffix)
	if path == "" {
		return "", fmt.Errorf("manifest URL %q has no path: %w", s, ErrNoPath)
	}
	return path, nil
}
