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

package fabric_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freyproject/clabseed/pkg/clab"
	"github.com/freyproject/clabseed/pkg/fabric"
)

func testTopology() *clab.Topology {
	return &clab.Topology{
		Name: "evpn-lab",
		Mgmt: clab.Mgmt{IPv4Subnet: "192.168.121.0/24"},
		Topology: clab.Graph{
			Nodes: map[string]clab.Node{
				"spine01": {Kind: "ceos"},
				"spine02": {Kind: "ceos"},
				"leaf01":  {Kind: "ceos"},
				"leaf02":  {Kind: "ceos"},
				"host01":  {Kind: "linux"},
			},
			Links: []clab.Link{
				{Endpoints: []string{"spine01:eth1", "leaf01:eth1"}},
				{Endpoints: []string{"spine02:eth1", "leaf01:eth2"}},
				{Endpoints: []string{"spine01:eth2", "leaf02:eth1"}},
				{Endpoints: []string{"spine02:eth2", "leaf02:eth2"}},
				{Endpoints: []string{"leaf01:eth3", "host01:eth1"}},
			},
		},
	}
}

func TestComposeSpineContext(t *testing.T) {
	cc := fabric.ComposeSpineContext("spine01", testTopology())
	assert.Equal(t, uint32(65000), cc.BGP.ASN)
	assert.Equal(t, "10.255.255.1", cc.BGP.RouterID)
	assert.Equal(t, fabric.Loopback{ID: 0, IP: "10.255.255.1/32"}, cc.BGP.RouterIDLoopback)
	// Only adjacent leafs peer on the overlay; host01 is not a fabric device.
	expected := []fabric.EVPNNeighbor{
		{IP: "10.255.255.11", Encapsulation: "vxlan"},
		{IP: "10.255.255.12", Encapsulation: "vxlan"},
	}
	assert.Empty(t, cmp.Diff(expected, cc.BGP.EVPN.Neighbors))
	require.Len(t, cc.BGP.PeerGroups, 2)
	assert.Equal(t, "SPINE_UNDERLAY", cc.BGP.PeerGroups[0].Name)
	assert.Equal(t, "EVPN_OVERLAY", cc.BGP.PeerGroups[1].Name)
	assert.Equal(t, []string{"10.0.0.100", "10.0.0.101"}, cc.NTPServers)
}

func TestComposeLeafContext(t *testing.T) {
	cc := fabric.ComposeLeafContext("leaf01", testTopology())
	assert.Equal(t, uint32(65001), cc.BGP.ASN)
	assert.Equal(t, "10.255.255.11", cc.BGP.RouterID)
	expected := []fabric.EVPNNeighbor{
		{IP: "10.255.255.1", Encapsulation: "vxlan"},
		{IP: "10.255.255.2", Encapsulation: "vxlan"},
	}
	assert.Empty(t, cmp.Diff(expected, cc.BGP.EVPN.Neighbors))
	assert.Equal(t, fabric.Loopback{ID: 1, IP: "10.255.255.11/32"}, cc.VXLAN.VTEPLoopback)
	assert.Equal(t, "Loopback1", cc.VXLAN.VTEPSourceInterface)
	assert.Equal(t, 4789, cc.VXLAN.UDPPort)
	assert.Equal(t, []fabric.VLANVNIMapping{
		{VLAN: 10, VNI: 10010},
		{VLAN: 20, VNI: 10020},
		{VLAN: 30, VNI: 10030},
	}, cc.VXLAN.VLANVNIMappings)
	assert.Equal(t, fabric.DefaultVLANs(), cc.VLANs)
	require.Len(t, cc.BGP.PeerGroups, 2)
	assert.Equal(t, "LEAF_UNDERLAY", cc.BGP.PeerGroups[0].Name)
}

func TestOverlayNeighborsDeduplicated(t *testing.T) {
	topo := &clab.Topology{
		Topology: clab.Graph{
			Nodes: map[string]clab.Node{
				"spine01": {Kind: "ceos"},
				"leaf01":  {Kind: "ceos"},
			},
			// Two parallel links to the same spine must yield one neighbor.
			Links: []clab.Link{
				{Endpoints: []string{"spine01:eth1", "leaf01:eth1"}},
				{Endpoints: []string{"spine01:eth2", "leaf01:eth2"}},
			},
		},
	}
	cc := fabric.ComposeLeafContext("leaf01", topo)
	assert.Equal(t, []fabric.EVPNNeighbor{
		{IP: "10.255.255.1", Encapsulation: "vxlan"},
	}, cc.BGP.EVPN.Neighbors)
}

func TestOverlayNeighborsEndpointOrder(t *testing.T) {
	// Neighbor resolution must not depend on which side of the link the
	// device is declared on.
	topo := testTopology()
	flipped := testTopology()
	for i, link := range flipped.Topology.Links {
		flipped.Topology.Links[i] = clab.Link{
			Endpoints: []string{link.Endpoints[1], link.Endpoints[0]},
		}
	}
	assert.Equal(t,
		fabric.ComposeLeafContext("leaf01", topo).BGP.EVPN.Neighbors,
		fabric.ComposeLeafContext("leaf01", flipped).BGP.EVPN.Neighbors)
}

func TestComposeContext(t *testing.T) {
	topo := testTopology()
	t.Run("spine", func(t *testing.T) {
		cc, ok := fabric.ComposeContext("spine01", topo)
		require.True(t, ok)
		assert.Equal(t, fabric.RoleSpine, cc.ContextRole())
	})
	t.Run("leaf", func(t *testing.T) {
		cc, ok := fabric.ComposeContext("leaf01", topo)
		require.True(t, ok)
		assert.Equal(t, fabric.RoleLeaf, cc.ContextRole())
	})
	t.Run("no payload for unclassified devices", func(t *testing.T) {
		cc, ok := fabric.ComposeContext("host01", topo)
		assert.False(t, ok)
		assert.Nil(t, cc)
	})
	t.Run("no payload for border devices", func(t *testing.T) {
		cc, ok := fabric.ComposeContext("border01", topo)
		assert.False(t, ok)
		assert.Nil(t, cc)
	})
}

func TestLeafContextWireFormat(t *testing.T) {
	// The JSON rendering is the config context payload stored in the
	// inventory, so the key names are part of the external contract.
	raw, err := json.Marshal(fabric.ComposeLeafContext("leaf01", testTopology()))
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{
		"vlans", "vxlan", "bgp", "ntp_servers", "dns_servers", "syslog_servers",
	} {
		assert.Contains(t, decoded, key)
	}
	bgp := decoded["bgp"].(map[string]interface{})
	assert.Equal(t, float64(65001), bgp["asn"])
	assert.Contains(t, bgp, "router_id_loopback")
	vxlan := decoded["vxlan"].(map[string]interface{})
	assert.Equal(t, float64(4789), vxlan["udp_port"])
}
