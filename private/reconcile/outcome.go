// Copyright 2025 The Frey Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reconcile

import (
	"sort"
	"strconv"
)

// Outcome is the explicit result of one reconciliation call. Failures are
// values, not control flow: a Failed outcome never aborts the surrounding
// loop.
type Outcome int

// Reconciliation outcomes.
const (
	// OutcomeFound means the entity already existed and was reused.
	OutcomeFound Outcome = iota
	// OutcomeCreated means the entity was created.
	OutcomeCreated
	// OutcomeSkipped means the entity was deliberately not touched, e.g. a
	// cable whose port is already occupied.
	OutcomeSkipped
	// OutcomeFailed means the call failed; the entity was skipped and the
	// run continues.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeCreated:
		return "created"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "outcome(" + strconv.Itoa(int(o)) + ")"
	}
}

// Report aggregates reconciliation outcomes per entity kind over one run.
type Report struct {
	counts map[string]map[Outcome]int
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{counts: make(map[string]map[Outcome]int)}
}

// Add records one outcome for the given entity kind.
func (r *Report) Add(kind string, outcome Outcome) {
	if r.counts[kind] == nil {
		r.counts[kind] = make(map[Outcome]int)
	}
	r.counts[kind][outcome]++
}

// Count returns the number of recorded outcomes of the given type for the
// kind.
func (r *Report) Count(kind string, outcome Outcome) int {
	return r.counts[kind][outcome]
}

// Failed returns the total number of failed calls across all kinds.
func (r *Report) Failed() int {
	var total int
	for _, outcomes := range r.counts {
		total += outcomes[OutcomeFailed]
	}
	return total
}

// Kinds returns the entity kinds with at least one recorded outcome, sorted.
func (r *Report) Kinds() []string {
	kinds := make([]string, 0, len(r.counts))
	for kind := range r.counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
