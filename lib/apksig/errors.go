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
	"errors"

	"github.com/sassoftware/apktrust/lib/zipslicer"
)

var (
	ErrNotFound    = zipslicer.ErrNotFound
	ErrTruncated   = zipslicer.ErrTruncated
	ErrIO          = zipslicer.ErrIO
	ErrInvalidData = errors.New("invalid data")
)

// Kind classifies an error for diagnostics. It never affects the trust outcome.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidData):
		return "invalid_data"
	case errors.Is(err, ErrTruncated):
		return "truncated"
	case errors.Is(err, ErrIO):
		return "io"
	default:
		return "unknown"
	}
}
