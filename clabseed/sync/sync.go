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

// Package sync sequences the seeding run: resolve the site, then the
// devices, then interfaces and cables, then compose and attach config
// contexts. Stages run strictly in order because later stages depend on
// identities produced by earlier ones. Within a stage, failures are
// isolated per entity; only precondition failures abort the run.
package sync

import (
	"context"
	"sort"

	"github.com/freyproject/clabseed/pkg/clab"
	"github.com/freyproject/clabseed/pkg/fabric"
	"github.com/freyproject/clabseed/pkg/log"
	"github.com/freyproject/clabseed/pkg/private/serrors"
	"github.com/freyproject/clabseed/private/netbox"
	"github.com/freyproject/clabseed/private/reconcile"
)

// Config configures a seeding run.
type Config struct {
	// SkipConfigContext disables the config context stage.
	SkipConfigContext bool
}

// Run seeds the inventory from the topology. The returned report counts
// the outcome of every reconciliation call; a non-nil error means a
// precondition failed and nothing (or not everything) was attempted.
func Run(ctx context.Context, topo *clab.Topology, inv reconcile.Inventory,
	cfg Config) (*reconcile.Report, error) {

	logger := log.FromCtx(ctx)
	if err := reconcile.ValidateProfiles(); err != nil {
		return nil, serrors.Wrap("validating device profiles", err)
	}
	if err := inv.Ping(ctx); err != nil {
		return nil, serrors.Wrap("connecting to inventory", err)
	}
	logger.Info("Connected to inventory")
	if err := topo.Validate(); err != nil {
		// Offending links are skipped individually during the link stage.
		logger.Error("Topology has invalid links, they will be skipped", "err", err)
	}

	r := reconcile.New(inv)
	site, _, err := r.Site(ctx, topo.Name)
	if err != nil {
		return nil, serrors.Wrap("resolving site", err, "site", topo.Name)
	}
	logger.Info("Using site", "site", site.Name)

	devices := resolveDevices(ctx, r, topo, site)
	resolveLinks(ctx, r, topo, devices)
	if cfg.SkipConfigContext {
		logger.Info("Skipping config context generation")
	} else {
		applyConfigContexts(ctx, r, topo, devices)
	}
	if err := ctx.Err(); err != nil {
		return r.Report(), serrors.Wrap("run interrupted", err)
	}
	return r.Report(), nil
}

// resolveDevices resolves every declared node along with its hardware
// profile chain and management address. A failure on one node never stops
// the others.
func resolveDevices(ctx context.Context, r *reconcile.Reconciler,
	topo *clab.Topology, site *netbox.Site) map[string]*netbox.Device {

	logger := log.FromCtx(ctx)
	prefixBits := topo.MgmtPrefix().Bits()
	logger.Info("Processing devices",
		"count", len(topo.Topology.Nodes),
		"mgmt_subnet", topo.Mgmt.IPv4Subnet,
	)

	devices := make(map[string]*netbox.Device)
	for _, name := range sortedNodeNames(topo) {
		if ctx.Err() != nil {
			logger.Error("Aborting device stage", "err", ctx.Err())
			break
		}
		node := topo.Topology.Nodes[name]
		device, err := resolveDevice(ctx, r, site, name, node)
		if err != nil {
			logger.Error("Resolving device failed", "device", name, "err", err)
			continue
		}
		devices[name] = device
		if node.MgmtIPv4 == "" {
			continue
		}
		if _, err := r.ManagementIP(ctx, device, node.MgmtIPv4, prefixBits); err != nil {
			logger.Error("Resolving management address failed",
				"device", name, "err", err)
		}
	}
	logger.Info("Processed devices", "resolved", len(devices))
	return devices
}

func resolveDevice(ctx context.Context, r *reconcile.Reconciler,
	site *netbox.Site, name string, node clab.Node) (*netbox.Device, error) {

	kind := node.Kind
	if kind == "" {
		kind = reconcile.GenericKind
	}
	profile, known := reconcile.ProfileFor(kind)
	if !known {
		log.FromCtx(ctx).Info("Unknown node kind, using generic profile",
			"device", name, "kind", kind)
	}
	manufacturer, _, err := r.Manufacturer(ctx, profile.Manufacturer)
	if err != nil {
		return nil, err
	}
	deviceType, _, err := r.DeviceType(ctx, manufacturer.ID, profile.Model)
	if err != nil {
		return nil, err
	}
	role, _, err := r.DeviceRole(ctx, deviceRoleName(name, profile))
	if err != nil {
		return nil, err
	}
	var platformID *int
	if profile.Platform != "" {
		platform, _, err := r.Platform(ctx, profile.Platform, manufacturer.ID)
		if err != nil {
			return nil, err
		}
		platformID = &platform.ID
	}
	device, _, err := r.Device(ctx, netbox.DeviceParams{
		Name:         name,
		DeviceTypeID: deviceType.ID,
		RoleID:       role.ID,
		SiteID:       site.ID,
		PlatformID:   platformID,
	})
	return device, err
}

// deviceRoleName maps a device onto its inventory role: fabric roles are
// derived from the name, everything else uses the profile's fallback.
func deviceRoleName(name string, profile reconcile.Profile) string {
	if role := fabric.RoleOf(name); role != fabric.RoleUnknown {
		return role.Title()
	}
	return profile.FallbackRole
}

// resolveLinks resolves both endpoint interfaces of every link and cables
// them together. Malformed links and links referencing unresolved devices
// are skipped; the remaining links are still processed.
func resolveLinks(ctx context.Context, r *reconcile.Reconciler,
	topo *clab.Topology, devices map[string]*netbox.Device) {

	logger := log.FromCtx(ctx)
	logger.Info("Processing links", "count", len(topo.Topology.Links))
	var completed int
	for i, link := range topo.Topology.Links {
		if ctx.Err() != nil {
			logger.Error("Aborting link stage", "err", ctx.Err())
			break
		}
		if len(link.Endpoints) != 2 {
			logger.Error("Skipping link without two endpoints", "link", i)
			continue
		}
		endpointA, err := clab.ParseEndpoint(link.Endpoints[0])
		if err != nil {
			logger.Error("Skipping link", "link", i, "err", err)
			continue
		}
		endpointB, err := clab.ParseEndpoint(link.Endpoints[1])
		if err != nil {
			logger.Error("Skipping link", "link", i, "err", err)
			continue
		}
		deviceA, okA := devices[endpointA.Device]
		deviceB, okB := devices[endpointB.Device]
		if !okA || !okB {
			logger.Error("Skipping link between unresolved devices",
				"link", i, "a", endpointA.Device, "b", endpointB.Device)
			continue
		}
		intfA, _, err := r.Interface(ctx, deviceA, endpointA.Interface)
		if err != nil {
			logger.Error("Resolving interface failed", "link", i, "err", err)
			continue
		}
		intfB, _, err := r.Interface(ctx, deviceB, endpointB.Interface)
		if err != nil {
			logger.Error("Resolving interface failed", "link", i, "err", err)
			continue
		}
		if _, err := r.Cable(ctx, intfA, intfB); err != nil {
			logger.Error("Resolving cable failed", "link", i, "err", err)
			continue
		}
		completed++
	}
	logger.Info("Processed links",
		"completed", completed, "total", len(topo.Topology.Links))
}

// applyConfigContexts composes and attaches the role specific configuration
// payload for every network device. Devices without a network OS platform,
// and network devices whose role has no payload, are skipped.
func applyConfigContexts(ctx context.Context, r *reconcile.Reconciler,
	topo *clab.Topology, devices map[string]*netbox.Device) {

	logger := log.FromCtx(ctx)
	logger.Info("Generating config contexts")
	for _, name := range sortedNodeNames(topo) {
		if ctx.Err() != nil {
			logger.Error("Aborting config context stage", "err", ctx.Err())
			break
		}
		device, ok := devices[name]
		if !ok {
			continue
		}
		node := topo.Topology.Nodes[name]
		profile, _ := reconcile.ProfileFor(node.Kind)
		if profile.Platform == "" {
			logger.Debug("No config context for non-network device", "device", name)
			continue
		}
		cc, ok := fabric.ComposeContext(name, topo)
		if !ok {
			logger.Info("Unknown role, no config context composed",
				"device", name, "role", fabric.RoleOf(name))
			continue
		}
		if _, err := r.ConfigContext(ctx, device, cc); err != nil {
			logger.Error("Applying config context failed", "device", name, "err", err)
		}
	}
	logger.Info("Config context generation complete")
}

func sortedNodeNames(topo *clab.Topology) []string {
	names := topo.NodeNames()
	sort.Strings(names)
	return names
}
