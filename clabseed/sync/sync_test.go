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

package sync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/freyproject/clabseed/clabseed/sync"
	"github.com/freyproject/clabseed/pkg/clab"
	"github.com/freyproject/clabseed/pkg/fabric"
	"github.com/freyproject/clabseed/pkg/log"
	"github.com/freyproject/clabseed/pkg/log/testlog"
	"github.com/freyproject/clabseed/pkg/private/serrors"
	"github.com/freyproject/clabseed/private/reconcile"
	"github.com/freyproject/clabseed/private/reconcile/reconciletest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testCtx(t *testing.T) context.Context {
	return log.CtxWith(context.Background(), testlog.NewLogger(t))
}

func testTopology(t *testing.T) *clab.Topology {
	t.Helper()
	topo, err := clab.Parse([]byte(`
name: evpn-lab
mgmt:
  ipv4-subnet: 192.168.121.0/24
topology:
  nodes:
    spine01:
      kind: ceos
      mgmt-ipv4: 192.168.121.101
    spine02:
      kind: ceos
      mgmt-ipv4: 192.168.121.102
    leaf01:
      kind: ceos
      mgmt-ipv4: 192.168.121.111
    leaf02:
      kind: ceos
      mgmt-ipv4: 192.168.121.112
    host01:
      kind: linux
  links:
    - endpoints: ["spine01:eth1", "leaf01:eth1"]
    - endpoints: ["spine02:eth1", "leaf01:eth2"]
    - endpoints: ["spine01:eth2", "leaf02:eth1"]
    - endpoints: ["spine02:eth2", "leaf02:eth2"]
    - endpoints: ["leaf01:eth3", "host01:eth1"]
`))
	require.NoError(t, err)
	return topo
}

func TestRun(t *testing.T) {
	ctx := testCtx(t)
	inv := reconciletest.NewInventory()
	topo := testTopology(t)

	report, err := sync.Run(ctx, topo, inv, sync.Config{})
	require.NoError(t, err)

	assert.Len(t, inv.Sites, 1)
	assert.Len(t, inv.Devices, 5)
	// Arista and Generic.
	assert.Len(t, inv.Manufacturers, 2)
	assert.Len(t, inv.DeviceTypes, 2)
	// Spine, Leaf, Host.
	assert.Len(t, inv.DeviceRoles, 3)
	assert.Len(t, inv.Platforms, 1)
	// Ten link endpoints plus four management interfaces.
	assert.Len(t, inv.Interfaces, 14)
	assert.Len(t, inv.Addresses, 4)
	assert.Len(t, inv.Cables, 5)
	// Config contexts for the four fabric switches, not for the host.
	assert.Len(t, inv.Contexts, 4)
	assert.Zero(t, report.Failed())

	// Every ceos device got its management address as primary IP.
	leaf01 := inv.Devices["leaf01"]
	addr, ok := inv.Addresses["192.168.121.111/24"]
	require.True(t, ok)
	assert.Equal(t, addr.ID, inv.PrimaryIPs[leaf01.ID])

	// The attached payloads are role specific.
	leafCC, ok := inv.Contexts[leaf01.ID].(*fabric.LeafContext)
	require.True(t, ok)
	assert.Equal(t, uint32(65001), leafCC.BGP.ASN)
	spineCC, ok := inv.Contexts[inv.Devices["spine01"].ID].(*fabric.SpineContext)
	require.True(t, ok)
	assert.Equal(t, uint32(65000), spineCC.BGP.ASN)
}

func TestRunTwiceCreatesNothingNew(t *testing.T) {
	ctx := testCtx(t)
	inv := reconciletest.NewInventory()
	topo := testTopology(t)

	_, err := sync.Run(ctx, topo, inv, sync.Config{})
	require.NoError(t, err)
	countAfterFirst := inv.EntityCount()

	report, err := sync.Run(ctx, topo, inv, sync.Config{})
	require.NoError(t, err)
	assert.Equal(t, countAfterFirst, inv.EntityCount())
	assert.Zero(t, report.Failed())
	assert.Zero(t, report.Count("device", reconcile.OutcomeCreated))
	assert.Equal(t, 5, report.Count("device", reconcile.OutcomeFound))
	// The cables from the first run occupy the ports.
	assert.Equal(t, 5, report.Count("cable", reconcile.OutcomeSkipped))
}

func TestRunSkipConfigContext(t *testing.T) {
	ctx := testCtx(t)
	inv := reconciletest.NewInventory()

	_, err := sync.Run(ctx, testTopology(t), inv, sync.Config{SkipConfigContext: true})
	require.NoError(t, err)
	assert.Empty(t, inv.Contexts)
}

func TestRunPingFailureIsFatal(t *testing.T) {
	ctx := testCtx(t)
	inv := reconciletest.NewInventory()
	inv.PingErr = serrors.New("connection refused")

	_, err := sync.Run(ctx, testTopology(t), inv, sync.Config{})
	require.Error(t, err)
	assert.Zero(t, inv.EntityCount())
}

func TestRunSkipsMalformedLink(t *testing.T) {
	ctx := testCtx(t)
	inv := reconciletest.NewInventory()
	topo, err := clab.Parse([]byte(`
name: partial-lab
mgmt:
  ipv4-subnet: 192.168.121.0/24
topology:
  nodes:
    spine01:
      kind: ceos
    leaf01:
      kind: ceos
  links:
    - endpoints: ["badendpoint", "leaf01:eth1"]
    - endpoints: ["spine01:eth1", "leaf01:eth2"]
    - endpoints: ["spine01:eth2", "ghost01:eth1"]
`))
	require.NoError(t, err)

	report, err := sync.Run(ctx, topo, inv, sync.Config{})
	require.NoError(t, err)
	// Only the one fully valid link produced a cable.
	assert.Len(t, inv.Cables, 1)
	assert.Equal(t, 1, report.Count("cable", reconcile.OutcomeCreated))
	assert.Len(t, inv.Interfaces, 2)
}

func TestRunIsolatesDeviceFailures(t *testing.T) {
	ctx := testCtx(t)
	inv := reconciletest.NewInventory()
	inv.FailOn["CreateDevice"] = serrors.New("validation rejected")

	report, err := sync.Run(ctx, testTopology(t), inv, sync.Config{})
	require.NoError(t, err)
	// No device could be created, but the run completed and the supporting
	// entities are all in place.
	assert.Empty(t, inv.Devices)
	assert.Len(t, inv.Manufacturers, 2)
	assert.Equal(t, 5, report.Count("device", reconcile.OutcomeFailed))
}
