// Copyright 2025 UMH Systems GmbH
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

package plctag

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// plctagRequestsTotal counts finished requests by outcome
	plctagRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plctag_requests_total",
			Help: "Total number of PLC tag requests by operation, tag type and result",
		},
		[]string{"operation", "type", "result"},
	)

	plctagRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plctag_request_duration_seconds",
			Help:    "Duration of PLC tag requests including session setup and teardown",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// recordRequest counts a finished request under a result label derived from err
func recordRequest(op string, t TagType, started time.Time, err error) {
	plctagRequestsTotal.WithLabelValues(op, typeLabel(t), classifyResult(err)).Inc()
	plctagRequestDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// typeLabel keeps the label set bounded: every invalid type shares one value
func typeLabel(t TagType) string {
	if !t.Valid() {
		return "unsupported"
	}
	return t.String()
}

// classifyResult maps the error taxonomy to metric labels
func classifyResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsParseError(err):
		return "parse_error"
	case IsCommunicationError(err):
		return "communication_error"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	default:
		return "error"
	}
}

// ResetMetrics resets all plctag metrics (for testing)
func ResetMetrics() {
	plctagRequestsTotal.Reset()
	plctagRequestDuration.Reset()
}
