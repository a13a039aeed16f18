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

package fabric

import (
	"fmt"

	"github.com/freyproject/clabseed/pkg/clab"
)

// VNIBase is added to a VLAN ID to form its overlay segment identifier, so
// segment IDs stay legible from VLAN IDs (VLAN 10 -> VNI 10010).
const VNIBase = 10000

// VXLANUDPPort is the IANA assigned VXLAN port.
const VXLANUDPPort = 4789

// Context is a role specific configuration payload that is attached to a
// device in the inventory as its config context.
type Context interface {
	// ContextRole names the role the payload was composed for.
	ContextRole() Role
}

// Loopback is a loopback interface assignment.
type Loopback struct {
	ID int    `json:"id"`
	IP string `json:"ip"`
}

// PeerGroup is a BGP peer group definition.
type PeerGroup struct {
	Name          string `json:"name"`
	RemoteAS      string `json:"remote_as"`
	UpdateSource  string `json:"update_source,omitempty"`
	EBGPMultihop  int    `json:"ebgp_multihop,omitempty"`
	SendCommunity string `json:"send_community"`
}

// EVPNNeighbor is one overlay peering session.
type EVPNNeighbor struct {
	IP            string `json:"ip"`
	Encapsulation string `json:"encapsulation"`
}

// EVPNConfig holds the overlay address family settings.
type EVPNConfig struct {
	RouteReflectorClient bool           `json:"route_reflector_client"`
	Neighbors            []EVPNNeighbor `json:"neighbors"`
}

// BGPConfig holds the underlay and overlay BGP parameters of a device.
type BGPConfig struct {
	ASN              uint32      `json:"asn"`
	RouterID         string      `json:"router_id"`
	RouterIDLoopback Loopback    `json:"router_id_loopback"`
	MaximumPaths     int         `json:"maximum_paths"`
	ECMPPaths        int         `json:"ecmp_paths"`
	PeerGroups       []PeerGroup `json:"peer_groups"`
	EVPN             EVPNConfig  `json:"evpn"`
}

// VLAN is a layer 2 segment definition.
type VLAN struct {
	VID  int    `json:"vid"`
	Name string `json:"name"`
}

// VLANVNIMapping maps a VLAN to its overlay segment.
type VLANVNIMapping struct {
	VLAN int `json:"vlan"`
	VNI  int `json:"vni"`
}

// VXLANConfig holds the tunnel endpoint settings of a leaf.
type VXLANConfig struct {
	VTEPLoopback        Loopback         `json:"vtep_loopback"`
	VTEPSourceInterface string           `json:"vtep_source_interface"`
	UDPPort             int              `json:"udp_port"`
	VLANVNIMappings     []VLANVNIMapping `json:"vlan_vni_mappings"`
}

// Servers holds the management plane server lists common to all fabric
// devices.
type Servers struct {
	NTPServers    []string `json:"ntp_servers"`
	DNSServers    []string `json:"dns_servers"`
	SyslogServers []string `json:"syslog_servers"`
}

// SpineContext is the configuration payload for a spine switch.
type SpineContext struct {
	BGP BGPConfig `json:"bgp"`
	Servers
}

// ContextRole implements Context.
func (SpineContext) ContextRole() Role { return RoleSpine }

// LeafContext is the configuration payload for a leaf switch.
type LeafContext struct {
	VLANs []VLAN      `json:"vlans"`
	VXLAN VXLANConfig `json:"vxlan"`
	BGP   BGPConfig   `json:"bgp"`
	Servers
}

// ContextRole implements Context.
func (LeafContext) ContextRole() Role { return RoleLeaf }

// DefaultVLANs returns the VLAN set provisioned on every leaf.
func DefaultVLANs() []VLAN {
	return []VLAN{
		{VID: 10, Name: "DATA"},
		{VID: 20, Name: "VOICE"},
		{VID: 30, Name: "GUEST"},
	}
}

func defaultServers() Servers {
	return Servers{
		NTPServers:    []string{"10.0.0.100", "10.0.0.101"},
		DNSServers:    []string{"10.0.0.50", "10.0.0.51"},
		SyslogServers: []string{"10.0.0.200"},
	}
}

// ComposeContext builds the configuration payload for the named device, or
// reports ok=false if the device's role has none. No payload is a valid
// outcome for border and unclassified devices, not an error.
func ComposeContext(name string, topo *clab.Topology) (Context, bool) {
	switch RoleOf(name) {
	case RoleSpine:
		return ComposeSpineContext(name, topo), true
	case RoleLeaf:
		return ComposeLeafContext(name, topo), true
	default:
		return nil, false
	}
}

// ComposeSpineContext builds the payload for a spine switch. The overlay
// neighbor set consists of the router IDs of all adjacent leafs.
func ComposeSpineContext(name string, topo *clab.Topology) *SpineContext {
	routerID := RouterID(name, RoleSpine)
	return &SpineContext{
		BGP: bgpConfig(
			ASN(name, RoleSpine),
			routerID.String(),
			"SPINE_UNDERLAY",
			overlayNeighbors(name, RoleLeaf, topo),
		),
		Servers: defaultServers(),
	}
}

// ComposeLeafContext builds the payload for a leaf switch. The overlay
// neighbor set consists of the router IDs of all adjacent spines; the
// device's own router ID doubles as its VXLAN tunnel endpoint.
func ComposeLeafContext(name string, topo *clab.Topology) *LeafContext {
	routerID := RouterID(name, RoleLeaf)
	vlans := DefaultVLANs()
	mappings := make([]VLANVNIMapping, 0, len(vlans))
	for _, vlan := range vlans {
		mappings = append(mappings, VLANVNIMapping{
			VLAN: vlan.VID,
			VNI:  VNIBase + vlan.VID,
		})
	}
	return &LeafContext{
		VLANs: vlans,
		VXLAN: VXLANConfig{
			VTEPLoopback:        Loopback{ID: 1, IP: fmt.Sprintf("%s/32", routerID)},
			VTEPSourceInterface: "Loopback1",
			UDPPort:             VXLANUDPPort,
			VLANVNIMappings:     mappings,
		},
		BGP: bgpConfig(
			ASN(name, RoleLeaf),
			routerID.String(),
			"LEAF_UNDERLAY",
			overlayNeighbors(name, RoleSpine, topo),
		),
		Servers: defaultServers(),
	}
}

// overlayNeighbors derives the overlay peering sessions of a device:
// adjacent devices of the expected peer role, deduplicated, in adjacency
// list order.
func overlayNeighbors(name string, peerRole Role, topo *clab.Topology) []EVPNNeighbor {
	var neighbors []EVPNNeighbor
	seen := make(map[string]struct{})
	for _, peer := range topo.Neighbors(name) {
		if RoleOf(peer) != peerRole {
			continue
		}
		if _, ok := seen[peer]; ok {
			continue
		}
		seen[peer] = struct{}{}
		neighbors = append(neighbors, EVPNNeighbor{
			IP:            RouterID(peer, peerRole).String(),
			Encapsulation: "vxlan",
		})
	}
	return neighbors
}

func bgpConfig(asn uint32, routerID, underlayGroup string, neighbors []EVPNNeighbor) BGPConfig {
	return BGPConfig{
		ASN:      asn,
		RouterID: routerID,
		RouterIDLoopback: Loopback{
			ID: 0,
			IP: fmt.Sprintf("%s/32", routerID),
		},
		MaximumPaths: 4,
		ECMPPaths:    4,
		PeerGroups: []PeerGroup{
			{
				Name:          underlayGroup,
				RemoteAS:      "external",
				SendCommunity: "extended",
			},
			{
				Name:          "EVPN_OVERLAY",
				RemoteAS:      "external",
				UpdateSource:  "Loopback0",
				EBGPMultihop:  3,
				SendCommunity: "extended",
			},
		},
		EVPN: EVPNConfig{
			RouteReflectorClient: false,
			Neighbors:            neighbors,
		},
	}
}
