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

// Package fabric derives routing identities and configuration payloads for
// an EVPN leaf-spine fabric from device naming conventions and topology
// adjacency. All derivations are pure functions of their inputs: the same
// device name always yields the same identity.
package fabric

import (
	"net/netip"
	"strconv"
	"strings"
)

// Role classifies a device by its place in the fabric.
type Role string

// Roles recognized by name prefix.
const (
	RoleSpine   Role = "spine"
	RoleLeaf    Role = "leaf"
	RoleBorder  Role = "border"
	RoleUnknown Role = "unknown"
)

// Title returns the role name capitalized, as used for inventory device
// role names.
func (r Role) Title() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// Router IDs live in a fixed /24. Spines start at the bottom of the range,
// leafs at .11, which leaves room for ten spines. Devices with border or
// unrecognized roles land in the .100+ band to stay clear of both.
var routerIDBase = netip.AddrFrom4([4]byte{10, 255, 255, 0})

const (
	spineLoopbackStart = 1
	leafLoopbackStart  = 11
	otherLoopbackStart = 100
)

// All spines share one ASN so that leafs treat them as a single external
// peer group; each leaf is its own autonomous system.
const (
	spineASN    = 65000
	leafASNBase = 65001
)

// RoleOf classifies a device name by case-insensitive prefix match.
func RoleOf(name string) Role {
	lower := strings.ToLower(name)
	for _, role := range []Role{RoleSpine, RoleLeaf, RoleBorder} {
		if strings.HasPrefix(lower, string(role)) {
			return role
		}
	}
	return RoleUnknown
}

// Ordinal extracts the trailing digit run of a device name, e.g.
// "spine01" -> 1. Names without a numeric suffix yield 0.
func Ordinal(name string) int {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	if i == len(name) {
		return 0
	}
	n, err := strconv.Atoi(name[i:])
	if err != nil {
		// Digit run too long to fit an int, treat as no suffix.
		return 0
	}
	return n
}

// RouterID derives the router identifier for a device. Two devices of the
// same role with identical (or both absent) numeric suffixes collide on the
// same address; that is a known limitation of name-based derivation, not
// detected here.
func RouterID(name string, role Role) netip.Addr {
	num := Ordinal(name)
	var octet int
	switch role {
	case RoleSpine:
		octet = spineLoopbackStart + num - 1
	case RoleLeaf:
		octet = leafLoopbackStart + num - 1
	default:
		octet = otherLoopbackStart + num
	}
	base := routerIDBase.As4()
	return netip.AddrFrom4([4]byte{base[0], base[1], base[2], byte(octet)})
}

// ASN derives the BGP autonomous system number for a device. Spines share
// spineASN, leafs count up from leafASNBase, everything else falls back to
// the spine ASN.
func ASN(name string, role Role) uint32 {
	if role != RoleLeaf {
		return spineASN
	}
	return leafASNBase + uint32(Ordinal(name)) - 1
}
