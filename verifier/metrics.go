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
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sassoftware/apktrust/lib/apksig"
	"github.com/sassoftware/apktrust/lib/trust"
)

var (
	MetricVerifySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apktrust_verify_seconds",
			Help:    "A histogram of package verification latencies",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
	MetricResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apktrust_verify_results_total",
			Help: "Trust codes returned by package verification",
		},
		[]string{"code"},
	)
	MetricErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apktrust_verify_errors_total",
			Help: "Package verification failures by kind",
		},
		[]string{"kind"},
	)
)

func observe(start time.Time, code trust.Code, err error) {
	MetricVerifySeconds.Observe(time.Since(start).Seconds())
	MetricResults.WithLabelValues(strconv.Itoa(int(code))).Inc()
	if err != nil {
		MetricErrors.WithLabelValues(errorKind(err)).Inc()
	}
}

// errorKind extends apksig.Kind with the failures a PathSource can produce
func errorKind(err error) string {
	if errors.Is(err, ErrNoPath) {
		return "no_path"
	}
	return apksig.Kind(err)
}
