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

// Package reconcile maps topology entities onto inventory entities exactly
// once. Every resolution is a lookup by natural key followed by a create on
// miss; reconciling the same input twice never creates a second entity.
// Failures are isolated per entity and reported as explicit outcomes.
package reconcile

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/freyproject/clabseed/pkg/log"
	"github.com/freyproject/clabseed/pkg/private/serrors"
	"github.com/freyproject/clabseed/private/netbox"
)

// MgmtInterfaceName is the interface management addresses are assigned to.
// The inventory model disallows direct device-to-address assignment.
const MgmtInterfaceName = "Management1"

// Interface types by link speed class.
const (
	ifTypeCopper = "1000base-t"
	ifTypeSFP    = "1000base-x-sfp"
)

// deviceRoleColor is the display color for roles this engine creates.
const deviceRoleColor = "2196f3"

// Reconciler resolves topology entities against the inventory. It memoizes
// resolved entities for the duration of one run, so repeated lookups of the
// same natural key hit the inventory service once.
type Reconciler struct {
	inv    Inventory
	memo   *cache.Cache
	report *Report
}

// New creates a reconciler on top of the given inventory.
func New(inv Inventory) *Reconciler {
	return &Reconciler{
		inv:    inv,
		memo:   cache.New(cache.NoExpiration, 0),
		report: NewReport(),
	}
}

// Report returns the outcome aggregation of the run so far.
func (r *Reconciler) Report() *Report {
	return r.report
}

// Site resolves a site by name.
func (r *Reconciler) Site(ctx context.Context, name string) (*netbox.Site, Outcome, error) {
	return resolve(ctx, r, "site", name,
		func(ctx context.Context) (*netbox.Site, error) {
			return r.inv.GetSite(ctx, name)
		},
		func(ctx context.Context) (*netbox.Site, error) {
			return r.inv.CreateSite(ctx, name)
		},
	)
}

// Manufacturer resolves a manufacturer by name.
func (r *Reconciler) Manufacturer(ctx context.Context,
	name string) (*netbox.Manufacturer, Outcome, error) {

	return resolve(ctx, r, "manufacturer", name,
		func(ctx context.Context) (*netbox.Manufacturer, error) {
			return r.inv.GetManufacturer(ctx, name)
		},
		func(ctx context.Context) (*netbox.Manufacturer, error) {
			return r.inv.CreateManufacturer(ctx, name)
		},
	)
}

// DeviceType resolves a device type by model, creating it under the given
// manufacturer on miss.
func (r *Reconciler) DeviceType(ctx context.Context, manufacturerID int,
	model string) (*netbox.DeviceType, Outcome, error) {

	return resolve(ctx, r, "device-type", model,
		func(ctx context.Context) (*netbox.DeviceType, error) {
			return r.inv.GetDeviceType(ctx, model)
		},
		func(ctx context.Context) (*netbox.DeviceType, error) {
			return r.inv.CreateDeviceType(ctx, manufacturerID, model)
		},
	)
}

// DeviceRole resolves a device role by name.
func (r *Reconciler) DeviceRole(ctx context.Context,
	name string) (*netbox.DeviceRole, Outcome, error) {

	return resolve(ctx, r, "device-role", name,
		func(ctx context.Context) (*netbox.DeviceRole, error) {
			return r.inv.GetDeviceRole(ctx, name)
		},
		func(ctx context.Context) (*netbox.DeviceRole, error) {
			return r.inv.CreateDeviceRole(ctx, name, deviceRoleColor)
		},
	)
}

// Platform resolves a platform by name, creating it under the given
// manufacturer on miss.
func (r *Reconciler) Platform(ctx context.Context, name string,
	manufacturerID int) (*netbox.Platform, Outcome, error) {

	return resolve(ctx, r, "platform", name,
		func(ctx context.Context) (*netbox.Platform, error) {
			return r.inv.GetPlatform(ctx, name)
		},
		func(ctx context.Context) (*netbox.Platform, error) {
			return r.inv.CreatePlatform(ctx, name, manufacturerID)
		},
	)
}

// Device resolves a device by name.
func (r *Reconciler) Device(ctx context.Context,
	params netbox.DeviceParams) (*netbox.Device, Outcome, error) {

	return resolve(ctx, r, "device", params.Name,
		func(ctx context.Context) (*netbox.Device, error) {
			return r.inv.GetDevice(ctx, params.Name)
		},
		func(ctx context.Context) (*netbox.Device, error) {
			return r.inv.CreateDevice(ctx, params)
		},
	)
}

// Interface resolves an interface by (device, name). The interface type is
// chosen from the name: management ports are copper, everything else SFP.
func (r *Reconciler) Interface(ctx context.Context, device *netbox.Device,
	name string) (*netbox.Interface, Outcome, error) {

	key := fmt.Sprintf("%d/%s", device.ID, name)
	return resolve(ctx, r, "interface", key,
		func(ctx context.Context) (*netbox.Interface, error) {
			return r.inv.GetInterface(ctx, device.ID, name)
		},
		func(ctx context.Context) (*netbox.Interface, error) {
			return r.inv.CreateInterface(ctx, device.ID, name, interfaceType(name))
		},
	)
}

// ManagementIP resolves the management address of a device. An address
// without a prefix length is completed with the management subnet's prefix
// length. On creation, and only then, the address is made the device's
// primary IPv4 address.
func (r *Reconciler) ManagementIP(ctx context.Context, device *netbox.Device,
	rawIP string, prefixBits int) (Outcome, error) {

	logger := log.FromCtx(ctx)
	address := rawIP
	if !strings.Contains(address, "/") {
		address = fmt.Sprintf("%s/%d", rawIP, prefixBits)
	}
	if _, err := netip.ParsePrefix(address); err != nil {
		r.report.Add("ip-address", OutcomeFailed)
		return OutcomeFailed, serrors.Wrap("invalid management address", err,
			"device", device.Name, "address", address)
	}
	existing, err := r.inv.GetIPAddress(ctx, address)
	if err != nil {
		r.report.Add("ip-address", OutcomeFailed)
		return OutcomeFailed, serrors.Wrap("looking up address", err, "address", address)
	}
	if existing != nil {
		logger.Debug("Address already exists", "address", address)
		r.report.Add("ip-address", OutcomeFound)
		return OutcomeFound, nil
	}
	mgmtIntf, _, err := r.Interface(ctx, device, MgmtInterfaceName)
	if err != nil {
		r.report.Add("ip-address", OutcomeFailed)
		return OutcomeFailed, serrors.Wrap("resolving management interface", err,
			"device", device.Name)
	}
	logger.Info("Creating management IP", "device", device.Name, "address", address)
	created, err := r.inv.CreateIPAddress(ctx, address, mgmtIntf.ID,
		"Management IP for "+device.Name)
	if err != nil {
		r.report.Add("ip-address", OutcomeFailed)
		return OutcomeFailed, serrors.Wrap("creating address", err, "address", address)
	}
	if err := r.inv.SetPrimaryIP(ctx, device.ID, created.ID); err != nil {
		r.report.Add("ip-address", OutcomeFailed)
		return OutcomeFailed, serrors.Wrap("setting primary address", err,
			"device", device.Name, "address", address)
	}
	r.report.Add("ip-address", OutcomeCreated)
	return OutcomeCreated, nil
}

// Cable resolves the cable between two interfaces. If either port already
// has a cable attached the call is a no-op: the inventory enforces one
// cable per port, and an occupied port means a previous run (or operator)
// already connected it.
func (r *Reconciler) Cable(ctx context.Context, a, b *netbox.Interface) (Outcome, error) {
	logger := log.FromCtx(ctx)
	if a.Cable != nil || b.Cable != nil {
		logger.Debug("Cable already exists",
			"a", fmt.Sprintf("%s:%s", a.Device.Name, a.Name),
			"b", fmt.Sprintf("%s:%s", b.Device.Name, b.Name),
		)
		r.report.Add("cable", OutcomeSkipped)
		return OutcomeSkipped, nil
	}
	logger.Info("Creating cable",
		"a", fmt.Sprintf("%s:%s", a.Device.Name, a.Name),
		"b", fmt.Sprintf("%s:%s", b.Device.Name, b.Name),
	)
	created, err := r.inv.CreateCable(ctx, a.ID, b.ID)
	if err != nil {
		r.report.Add("cable", OutcomeFailed)
		return OutcomeFailed, serrors.Wrap("creating cable", err)
	}
	// Keep the memoized interfaces in sync so a duplicate link in the same
	// run sees the occupied port.
	a.Cable = &netbox.CableRef{ID: created.ID}
	b.Cable = &netbox.CableRef{ID: created.ID}
	r.report.Add("cable", OutcomeCreated)
	return OutcomeCreated, nil
}

// ConfigContext attaches the given payload as the device's config context.
// This is an intended mutation, applied on every run.
func (r *Reconciler) ConfigContext(ctx context.Context, device *netbox.Device,
	payload interface{}) (Outcome, error) {

	log.FromCtx(ctx).Info("Applying config context", "device", device.Name)
	if err := r.inv.SetConfigContext(ctx, device.ID, payload); err != nil {
		r.report.Add("config-context", OutcomeFailed)
		return OutcomeFailed, serrors.Wrap("applying config context", err,
			"device", device.Name)
	}
	r.report.Add("config-context", OutcomeCreated)
	return OutcomeCreated, nil
}

// resolve is the generalized get-or-create: look up by natural key, create
// on miss, reuse on hit. Safe to call repeatedly with identical arguments.
func resolve[T any](ctx context.Context, r *Reconciler, kind, key string,
	get func(context.Context) (*T, error),
	create func(context.Context) (*T, error)) (*T, Outcome, error) {

	logger := log.FromCtx(ctx)
	memoKey := kind + "/" + key
	if memoized, ok := r.memo.Get(memoKey); ok {
		return memoized.(*T), OutcomeFound, nil
	}
	existing, err := get(ctx)
	if err != nil {
		r.report.Add(kind, OutcomeFailed)
		return nil, OutcomeFailed, serrors.Wrap("looking up "+kind, err, "key", key)
	}
	if existing != nil {
		logger.Debug("Entity already exists", "kind", kind, "key", key)
		r.memo.SetDefault(memoKey, existing)
		r.report.Add(kind, OutcomeFound)
		return existing, OutcomeFound, nil
	}
	logger.Info("Creating entity", "kind", kind, "key", key)
	created, err := create(ctx)
	if err != nil {
		r.report.Add(kind, OutcomeFailed)
		return nil, OutcomeFailed, serrors.Wrap("creating "+kind, err, "key", key)
	}
	r.memo.SetDefault(memoKey, created)
	r.report.Add(kind, OutcomeCreated)
	return created, OutcomeCreated, nil
}

func interfaceType(name string) string {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "mgmt") || strings.HasPrefix(lower, "management") {
		return ifTypeCopper
	}
	return ifTypeSFP
}
