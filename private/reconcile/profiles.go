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
	"github.com/freyproject/clabseed/pkg/private/serrors"
)

// Profile maps a containerlab node kind onto the inventory's hardware
// model: manufacturer, device type model and, for network operating
// systems, a platform.
type Profile struct {
	Manufacturer string
	Model        string
	// Platform is empty for kinds without a network OS platform.
	Platform string
	// FallbackRole is the device role for nodes whose name does not match
	// any fabric role prefix.
	FallbackRole string
}

// GenericKind is the profile used for node kinds missing from the table.
const GenericKind = "linux"

// kindProfiles is the full enumeration of supported containerlab node
// kinds. Kinds outside this table fall back to GenericKind explicitly; the
// table itself is validated at startup, not defaulted silently.
var kindProfiles = map[string]Profile{
	"ceos": {
		Manufacturer: "Arista",
		Model:        "Arista cEOS",
		Platform:     "Arista EOS",
		FallbackRole: "Network Device",
	},
	"linux": {
		Manufacturer: "Generic",
		Model:        "Linux Host",
		FallbackRole: "Host",
	},
}

// ProfileFor returns the profile for a node kind and whether the kind was
// found in the table. On a miss the generic profile is returned.
func ProfileFor(kind string) (Profile, bool) {
	if profile, ok := kindProfiles[kind]; ok {
		return profile, true
	}
	return kindProfiles[GenericKind], false
}

// ValidateProfiles checks the profile table for completeness. It runs at
// startup so a malformed table is a precondition failure, not a per-device
// one.
func ValidateProfiles() error {
	var errs serrors.List
	if _, ok := kindProfiles[GenericKind]; !ok {
		errs = append(errs, serrors.New("profile table misses generic kind",
			"kind", GenericKind))
	}
	for kind, profile := range kindProfiles {
		if profile.Manufacturer == "" {
			errs = append(errs, serrors.New("profile without manufacturer", "kind", kind))
		}
		if profile.Model == "" {
			errs = append(errs, serrors.New("profile without model", "kind", kind))
		}
		if profile.FallbackRole == "" {
			errs = append(errs, serrors.New("profile without fallback role", "kind", kind))
		}
	}
	return errs.ToError()
}
