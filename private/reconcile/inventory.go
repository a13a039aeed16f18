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
	"context"

	"github.com/freyproject/clabseed/private/netbox"
)

// Inventory is the capability set the reconciler requires from the
// inventory of record. Get methods look up by natural key and return a nil
// record on miss; a miss is not an error. netbox.Client implements this
// interface, tests use an in-memory fake.
type Inventory interface {
	Ping(ctx context.Context) error

	GetManufacturer(ctx context.Context, name string) (*netbox.Manufacturer, error)
	CreateManufacturer(ctx context.Context, name string) (*netbox.Manufacturer, error)

	GetDeviceType(ctx context.Context, model string) (*netbox.DeviceType, error)
	CreateDeviceType(ctx context.Context, manufacturerID int,
		model string) (*netbox.DeviceType, error)

	GetSite(ctx context.Context, name string) (*netbox.Site, error)
	CreateSite(ctx context.Context, name string) (*netbox.Site, error)

	GetDeviceRole(ctx context.Context, name string) (*netbox.DeviceRole, error)
	CreateDeviceRole(ctx context.Context, name, color string) (*netbox.DeviceRole, error)

	GetPlatform(ctx context.Context, name string) (*netbox.Platform, error)
	CreatePlatform(ctx context.Context, name string,
		manufacturerID int) (*netbox.Platform, error)

	GetDevice(ctx context.Context, name string) (*netbox.Device, error)
	CreateDevice(ctx context.Context, params netbox.DeviceParams) (*netbox.Device, error)

	GetInterface(ctx context.Context, deviceID int, name string) (*netbox.Interface, error)
	CreateInterface(ctx context.Context, deviceID int, name,
		ifType string) (*netbox.Interface, error)

	GetIPAddress(ctx context.Context, address string) (*netbox.IPAddress, error)
	CreateIPAddress(ctx context.Context, address string, interfaceID int,
		description string) (*netbox.IPAddress, error)

	CreateCable(ctx context.Context, aInterfaceID, bInterfaceID int) (*netbox.Cable, error)

	SetPrimaryIP(ctx context.Context, deviceID, addressID int) error
	SetConfigContext(ctx context.Context, deviceID int, payload interface{}) error
}

var _ Inventory = (*netbox.Client)(nil)
