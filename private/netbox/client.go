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

// Package netbox is a minimal client for the NetBox REST API, limited to
// the lookup-by-natural-key and create operations the seeding engine needs.
// Lookups return a nil record on miss; a miss is not an error.
package netbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/freyproject/clabseed/pkg/private/serrors"
)

// Client talks to one NetBox instance.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
}

// Config configures a NetBox client.
type Config struct {
	// URL is the base URL of the NetBox instance, e.g.
	// https://netbox.example.com.
	URL string
	// Token is the API token.
	Token string
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
}

// NewClient creates a client for the NetBox instance at cfg.URL.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.URL, "/"))
	if err != nil {
		return nil, serrors.Wrap("parsing NetBox URL", err, "url", cfg.URL)
	}
	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		baseURL:    base,
		token:      cfg.Token,
		httpClient: &http.Client{Transport: transport},
	}, nil
}

// Ping verifies connectivity and authentication by listing a single site.
func (c *Client) Ping(ctx context.Context) error {
	var page listPage[Site]
	query := url.Values{"limit": []string{"1"}}
	if err := c.get(ctx, "/api/dcim/sites/", query, &page); err != nil {
		return serrors.Wrap("connecting to NetBox", err)
	}
	return nil
}

// GetManufacturer looks up a manufacturer by name.
func (c *Client) GetManufacturer(ctx context.Context, name string) (*Manufacturer, error) {
	return getByFilter[Manufacturer](ctx, c, "/api/dcim/manufacturers/",
		url.Values{"name": []string{name}})
}

// CreateManufacturer creates a manufacturer.
func (c *Client) CreateManufacturer(ctx context.Context, name string) (*Manufacturer, error) {
	body := map[string]interface{}{"name": name, "slug": Slugify(name)}
	return create[Manufacturer](ctx, c, "/api/dcim/manufacturers/", body)
}

// GetDeviceType looks up a device type by model.
func (c *Client) GetDeviceType(ctx context.Context, model string) (*DeviceType, error) {
	return getByFilter[DeviceType](ctx, c, "/api/dcim/device-types/",
		url.Values{"model": []string{model}})
}

// CreateDeviceType creates a device type under the given manufacturer.
func (c *Client) CreateDeviceType(ctx context.Context, manufacturerID int,
	model string) (*DeviceType, error) {

	body := map[string]interface{}{
		"manufacturer": manufacturerID,
		"model":        model,
		"slug":         Slugify(model),
	}
	return create[DeviceType](ctx, c, "/api/dcim/device-types/", body)
}

// GetSite looks up a site by name.
func (c *Client) GetSite(ctx context.Context, name string) (*Site, error) {
	return getByFilter[Site](ctx, c, "/api/dcim/sites/",
		url.Values{"name": []string{name}})
}

// CreateSite creates a site.
func (c *Client) CreateSite(ctx context.Context, name string) (*Site, error) {
	body := map[string]interface{}{"name": name, "slug": Slugify(name)}
	return create[Site](ctx, c, "/api/dcim/sites/", body)
}

// GetDeviceRole looks up a device role by name.
func (c *Client) GetDeviceRole(ctx context.Context, name string) (*DeviceRole, error) {
	return getByFilter[DeviceRole](ctx, c, "/api/dcim/device-roles/",
		url.Values{"name": []string{name}})
}

// CreateDeviceRole creates a device role.
func (c *Client) CreateDeviceRole(ctx context.Context, name, color string) (*DeviceRole, error) {
	body := map[string]interface{}{"name": name, "slug": Slugify(name), "color": color}
	return create[DeviceRole](ctx, c, "/api/dcim/device-roles/", body)
}

// GetPlatform looks up a platform by name.
func (c *Client) GetPlatform(ctx context.Context, name string) (*Platform, error) {
	return getByFilter[Platform](ctx, c, "/api/dcim/platforms/",
		url.Values{"name": []string{name}})
}

// CreatePlatform creates a platform under the given manufacturer.
func (c *Client) CreatePlatform(ctx context.Context, name string,
	manufacturerID int) (*Platform, error) {

	body := map[string]interface{}{
		"name":         name,
		"slug":         Slugify(name),
		"manufacturer": manufacturerID,
	}
	return create[Platform](ctx, c, "/api/dcim/platforms/", body)
}

// GetDevice looks up a device by name.
func (c *Client) GetDevice(ctx context.Context, name string) (*Device, error) {
	return getByFilter[Device](ctx, c, "/api/dcim/devices/",
		url.Values{"name": []string{name}})
}

// CreateDevice creates a device.
func (c *Client) CreateDevice(ctx context.Context, params DeviceParams) (*Device, error) {
	return create[Device](ctx, c, "/api/dcim/devices/", params)
}

// GetInterface looks up an interface by device ID and name.
func (c *Client) GetInterface(ctx context.Context, deviceID int,
	name string) (*Interface, error) {

	query := url.Values{
		"device_id": []string{strconv.Itoa(deviceID)},
		"name":      []string{name},
	}
	return getByFilter[Interface](ctx, c, "/api/dcim/interfaces/", query)
}

// CreateInterface creates an interface of the given type on a device.
func (c *Client) CreateInterface(ctx context.Context, deviceID int, name,
	ifType string) (*Interface, error) {

	body := map[string]interface{}{
		"device": deviceID,
		"name":   name,
		"type":   ifType,
	}
	return create[Interface](ctx, c, "/api/dcim/interfaces/", body)
}

// GetIPAddress looks up an IP address record by its address string
// (including the prefix length).
func (c *Client) GetIPAddress(ctx context.Context, address string) (*IPAddress, error) {
	return getByFilter[IPAddress](ctx, c, "/api/ipam/ip-addresses/",
		url.Values{"address": []string{address}})
}

// CreateIPAddress creates an IP address assigned to an interface. NetBox
// does not allow assigning addresses to devices directly.
func (c *Client) CreateIPAddress(ctx context.Context, address string, interfaceID int,
	description string) (*IPAddress, error) {

	body := map[string]interface{}{
		"address":              address,
		"assigned_object_type": "dcim.interface",
		"assigned_object_id":   interfaceID,
		"description":          description,
	}
	return create[IPAddress](ctx, c, "/api/ipam/ip-addresses/", body)
}

// CreateCable connects two interfaces.
func (c *Client) CreateCable(ctx context.Context, aInterfaceID,
	bInterfaceID int) (*Cable, error) {

	body := map[string]interface{}{
		"a_terminations": []termination{
			{ObjectType: "dcim.interface", ObjectID: aInterfaceID},
		},
		"b_terminations": []termination{
			{ObjectType: "dcim.interface", ObjectID: bInterfaceID},
		},
	}
	return create[Cable](ctx, c, "/api/dcim/cables/", body)
}

// SetPrimaryIP marks the given address as the device's primary IPv4.
func (c *Client) SetPrimaryIP(ctx context.Context, deviceID, addressID int) error {
	body := map[string]interface{}{"primary_ip4": addressID}
	return c.patch(ctx, fmt.Sprintf("/api/dcim/devices/%d/", deviceID), body)
}

// SetConfigContext attaches payload as the device's local config context.
func (c *Client) SetConfigContext(ctx context.Context, deviceID int,
	payload interface{}) error {

	body := map[string]interface{}{"local_context_data": payload}
	return c.patch(ctx, fmt.Sprintf("/api/dcim/devices/%d/", deviceID), body)
}

// Slugify derives a NetBox slug from a display name.
func Slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// listPage is the envelope of NetBox list responses.
type listPage[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// getByFilter returns the first record matching the query, or nil if there
// is none.
func getByFilter[T any](ctx context.Context, c *Client, path string,
	query url.Values) (*T, error) {

	var page listPage[T]
	if err := c.get(ctx, path, query, &page); err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, nil
	}
	return &page.Results[0], nil
}

func create[T any](ctx context.Context, c *Client, path string,
	body interface{}) (*T, error) {

	var created T
	if err := c.do(ctx, http.MethodPost, path, nil, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values,
	result interface{}) error {

	return c.do(ctx, http.MethodGet, path, query, nil, result)
}

func (c *Client) patch(ctx context.Context, path string, body interface{}) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values,
	body, result interface{}) error {

	target := *c.baseURL
	target.Path = strings.TrimSuffix(target.Path, "/") + path
	if query != nil {
		target.RawQuery = query.Encode()
	}
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return serrors.Wrap("marshaling request body", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return serrors.Wrap("creating request", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return serrors.Wrap("sending request", err, "method", method, "path", path)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return serrors.New("NetBox API error",
			"method", method,
			"path", path,
			"status", resp.Status,
			"detail", strings.TrimSpace(string(detail)),
		)
	}
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return serrors.Wrap("decoding response", err, "method", method, "path", path)
	}
	return nil
}
