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

package netbox

// The records below are the slices of the NetBox data model this engine
// touches. NetBox owns these objects; only the server assigned IDs and the
// fields needed for natural key matching and cable occupancy are kept.

// Manufacturer is a dcim.manufacturer record.
type Manufacturer struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// DeviceType is a dcim.devicetype record.
type DeviceType struct {
	ID    int    `json:"id"`
	Model string `json:"model"`
	Slug  string `json:"slug"`
}

// Site is a dcim.site record.
type Site struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// DeviceRole is a dcim.devicerole record.
type DeviceRole struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Platform is a dcim.platform record.
type Platform struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Device is a dcim.device record.
type Device struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CableRef is the cable attachment of an interface. A nil CableRef on an
// Interface means the port is free.
type CableRef struct {
	ID int `json:"id"`
}

// Interface is a dcim.interface record. Cable is the occupancy side
// channel: NetBox allows at most one cable per port.
type Interface struct {
	ID     int       `json:"id"`
	Name   string    `json:"name"`
	Device DeviceRef `json:"device"`
	Cable  *CableRef `json:"cable"`
}

// DeviceRef is the device summary nested in interface records.
type DeviceRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// IPAddress is an ipam.ipaddress record. Address includes the prefix
// length, e.g. "192.168.121.10/24".
type IPAddress struct {
	ID      int    `json:"id"`
	Address string `json:"address"`
}

// Cable is a dcim.cable record.
type Cable struct {
	ID int `json:"id"`
}

// DeviceParams are the creation parameters for a device.
type DeviceParams struct {
	Name         string `json:"name"`
	DeviceTypeID int    `json:"device_type"`
	RoleID       int    `json:"role"`
	SiteID       int    `json:"site"`
	PlatformID   *int   `json:"platform,omitempty"`
}

// termination is one end of a cable in the creation payload.
type termination struct {
	ObjectType string `json:"object_type"`
	ObjectID   int    `json:"object_id"`
}
