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

// Package reconciletest provides an in-memory inventory for tests. Unlike a
// mock, it keeps real state across calls, which is what the idempotence
// properties of the reconciler are about.
package reconciletest

import (
	"context"
	"fmt"

	"github.com/freyproject/clabseed/pkg/private/serrors"
	"github.com/freyproject/clabseed/private/netbox"
	"github.com/freyproject/clabseed/private/reconcile"
)

var _ reconcile.Inventory = (*Inventory)(nil)

// Inventory is an in-memory implementation of the reconciler's inventory
// capability set. The zero value is not usable, use NewInventory.
type Inventory struct {
	nextID int

	Manufacturers map[string]*netbox.Manufacturer
	DeviceTypes   map[string]*netbox.DeviceType
	Sites         map[string]*netbox.Site
	DeviceRoles   map[string]*netbox.DeviceRole
	Platforms     map[string]*netbox.Platform
	Devices       map[string]*netbox.Device
	Interfaces    map[string]*netbox.Interface
	Addresses     map[string]*netbox.IPAddress
	Cables        []*netbox.Cable
	PrimaryIPs    map[int]int
	Contexts      map[int]interface{}

	// CreateCalls counts create operations per entity kind.
	CreateCalls map[string]int
	// FailOn injects an error for the named operation, e.g. "CreateDevice".
	FailOn map[string]error
	// PingErr is returned by Ping.
	PingErr error
}

// NewInventory creates an empty in-memory inventory.
func NewInventory() *Inventory {
	return &Inventory{
		Manufacturers: make(map[string]*netbox.Manufacturer),
		DeviceTypes:   make(map[string]*netbox.DeviceType),
		Sites:         make(map[string]*netbox.Site),
		DeviceRoles:   make(map[string]*netbox.DeviceRole),
		Platforms:     make(map[string]*netbox.Platform),
		Devices:       make(map[string]*netbox.Device),
		Interfaces:    make(map[string]*netbox.Interface),
		Addresses:     make(map[string]*netbox.IPAddress),
		PrimaryIPs:    make(map[int]int),
		Contexts:      make(map[int]interface{}),
		CreateCalls:   make(map[string]int),
		FailOn:        make(map[string]error),
	}
}

// EntityCount returns the total number of stored entities. Reconciling the
// same topology twice must leave this unchanged after the second run.
func (f *Inventory) EntityCount() int {
	return len(f.Manufacturers) + len(f.DeviceTypes) + len(f.Sites) +
		len(f.DeviceRoles) + len(f.Platforms) + len(f.Devices) +
		len(f.Interfaces) + len(f.Addresses) + len(f.Cables)
}

// InterfaceKey is the natural key of an interface in this inventory.
func InterfaceKey(deviceID int, name string) string {
	return fmt.Sprintf("%d/%s", deviceID, name)
}

func (f *Inventory) id() int {
	f.nextID++
	return f.nextID
}

func (f *Inventory) fail(op string) error {
	if err, ok := f.FailOn[op]; ok {
		return err
	}
	return nil
}

// Ping implements the connectivity probe.
func (f *Inventory) Ping(ctx context.Context) error {
	return f.PingErr
}

func (f *Inventory) GetManufacturer(ctx context.Context,
	name string) (*netbox.Manufacturer, error) {

	return f.Manufacturers[name], f.fail("GetManufacturer")
}

func (f *Inventory) CreateManufacturer(ctx context.Context,
	name string) (*netbox.Manufacturer, error) {

	f.CreateCalls["manufacturer"]++
	if err := f.fail("CreateManufacturer"); err != nil {
		return nil, err
	}
	created := &netbox.Manufacturer{ID: f.id(), Name: name, Slug: netbox.Slugify(name)}
	f.Manufacturers[name] = created
	return created, nil
}

func (f *Inventory) GetDeviceType(ctx context.Context,
	model string) (*netbox.DeviceType, error) {

	return f.DeviceTypes[model], f.fail("GetDeviceType")
}

func (f *Inventory) CreateDeviceType(ctx context.Context, manufacturerID int,
	model string) (*netbox.DeviceType, error) {

	f.CreateCalls["device-type"]++
	if err := f.fail("CreateDeviceType"); err != nil {
		return nil, err
	}
	created := &netbox.DeviceType{ID: f.id(), Model: model, Slug: netbox.Slugify(model)}
	f.DeviceTypes[model] = created
	return created, nil
}

func (f *Inventory) GetSite(ctx context.Context, name string) (*netbox.Site, error) {
	return f.Sites[name], f.fail("GetSite")
}

func (f *Inventory) CreateSite(ctx context.Context, name string) (*netbox.Site, error) {
	f.CreateCalls["site"]++
	if err := f.fail("CreateSite"); err != nil {
		return nil, err
	}
	created := &netbox.Site{ID: f.id(), Name: name, Slug: netbox.Slugify(name)}
	f.Sites[name] = created
	return created, nil
}

func (f *Inventory) GetDeviceRole(ctx context.Context,
	name string) (*netbox.DeviceRole, error) {

	return f.DeviceRoles[name], f.fail("GetDeviceRole")
}

func (f *Inventory) CreateDeviceRole(ctx context.Context, name,
	color string) (*netbox.DeviceRole, error) {

	f.CreateCalls["device-role"]++
	if err := f.fail("CreateDeviceRole"); err != nil {
		return nil, err
	}
	created := &netbox.DeviceRole{ID: f.id(), Name: name, Slug: netbox.Slugify(name)}
	f.DeviceRoles[name] = created
	return created, nil
}

func (f *Inventory) GetPlatform(ctx context.Context,
	name string) (*netbox.Platform, error) {

	return f.Platforms[name], f.fail("GetPlatform")
}

func (f *Inventory) CreatePlatform(ctx context.Context, name string,
	manufacturerID int) (*netbox.Platform, error) {

	f.CreateCalls["platform"]++
	if err := f.fail("CreatePlatform"); err != nil {
		return nil, err
	}
	created := &netbox.Platform{ID: f.id(), Name: name, Slug: netbox.Slugify(name)}
	f.Platforms[name] = created
	return created, nil
}

func (f *Inventory) GetDevice(ctx context.Context, name string) (*netbox.Device, error) {
	return f.Devices[name], f.fail("GetDevice")
}

func (f *Inventory) CreateDevice(ctx context.Context,
	params netbox.DeviceParams) (*netbox.Device, error) {

	f.CreateCalls["device"]++
	if err := f.fail("CreateDevice"); err != nil {
		return nil, err
	}
	created := &netbox.Device{ID: f.id(), Name: params.Name}
	f.Devices[params.Name] = created
	return created, nil
}

func (f *Inventory) GetInterface(ctx context.Context, deviceID int,
	name string) (*netbox.Interface, error) {

	return f.Interfaces[InterfaceKey(deviceID, name)], f.fail("GetInterface")
}

func (f *Inventory) CreateInterface(ctx context.Context, deviceID int, name,
	ifType string) (*netbox.Interface, error) {

	f.CreateCalls["interface"]++
	if err := f.fail("CreateInterface"); err != nil {
		return nil, err
	}
	var deviceName string
	for _, device := range f.Devices {
		if device.ID == deviceID {
			deviceName = device.Name
		}
	}
	created := &netbox.Interface{
		ID:     f.id(),
		Name:   name,
		Device: netbox.DeviceRef{ID: deviceID, Name: deviceName},
	}
	f.Interfaces[InterfaceKey(deviceID, name)] = created
	return created, nil
}

func (f *Inventory) GetIPAddress(ctx context.Context,
	address string) (*netbox.IPAddress, error) {

	return f.Addresses[address], f.fail("GetIPAddress")
}

func (f *Inventory) CreateIPAddress(ctx context.Context, address string,
	interfaceID int, description string) (*netbox.IPAddress, error) {

	f.CreateCalls["ip-address"]++
	if err := f.fail("CreateIPAddress"); err != nil {
		return nil, err
	}
	created := &netbox.IPAddress{ID: f.id(), Address: address}
	f.Addresses[address] = created
	return created, nil
}

func (f *Inventory) CreateCable(ctx context.Context, aInterfaceID,
	bInterfaceID int) (*netbox.Cable, error) {

	f.CreateCalls["cable"]++
	if err := f.fail("CreateCable"); err != nil {
		return nil, err
	}
	for _, intf := range f.Interfaces {
		if intf.ID == aInterfaceID || intf.ID == bInterfaceID {
			if intf.Cable != nil {
				return nil, serrors.New("port already occupied", "interface", intf.Name)
			}
		}
	}
	created := &netbox.Cable{ID: f.id()}
	f.Cables = append(f.Cables, created)
	for _, intf := range f.Interfaces {
		if intf.ID == aInterfaceID || intf.ID == bInterfaceID {
			intf.Cable = &netbox.CableRef{ID: created.ID}
		}
	}
	return created, nil
}

func (f *Inventory) SetPrimaryIP(ctx context.Context, deviceID, addressID int) error {
	if err := f.fail("SetPrimaryIP"); err != nil {
		return err
	}
	f.PrimaryIPs[deviceID] = addressID
	return nil
}

func (f *Inventory) SetConfigContext(ctx context.Context, deviceID int,
	payload interface{}) error {

	if err := f.fail("SetConfigContext"); err != nil {
		return err
	}
	f.Contexts[deviceID] = payload
	return nil
}
