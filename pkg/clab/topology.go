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

// Package clab parses containerlab topology files and answers adjacency
// queries on the declared link list. The topology document is read-only
// input; nothing in this package mutates it after parsing.
package clab

import (
	"net/netip"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/freyproject/clabseed/pkg/private/serrors"
)

// DefaultName is used when the topology file does not declare a name.
const DefaultName = "containerlab"

// Topology is a parsed containerlab topology file.
type Topology struct {
	Name     string `yaml:"name"`
	Mgmt     Mgmt   `yaml:"mgmt"`
	Topology Graph  `yaml:"topology"`
}

// Mgmt describes the management network of the lab.
type Mgmt struct {
	IPv4Subnet string `yaml:"ipv4-subnet"`
}

// Graph holds the declared nodes and links.
type Graph struct {
	Nodes map[string]Node `yaml:"nodes"`
	Links []Link          `yaml:"links"`
}

// Node is a single device declaration.
type Node struct {
	Kind     string `yaml:"kind"`
	MgmtIPv4 string `yaml:"mgmt-ipv4"`
}

// Link connects two endpoints, each in "device:interface" notation.
type Link struct {
	Endpoints []string `yaml:"endpoints"`
}

// Endpoint is one parsed side of a link.
type Endpoint struct {
	Device    string
	Interface string
}

// ParseEndpoint splits a containerlab endpoint string of the form
// "device:interface".
func ParseEndpoint(s string) (Endpoint, error) {
	device, ifname, ok := strings.Cut(s, ":")
	if !ok || device == "" || ifname == "" {
		return Endpoint{}, serrors.New("malformed link endpoint", "endpoint", s)
	}
	return Endpoint{Device: device, Interface: ifname}, nil
}

// Load reads and parses a containerlab topology file.
func Load(path string) (*Topology, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.Wrap("reading topology file", err, "file", path)
	}
	topo, err := Parse(raw)
	if err != nil {
		return nil, serrors.Wrap("parsing topology file", err, "file", path)
	}
	return topo, nil
}

// Parse parses a containerlab topology document. A missing management subnet
// or a subnet without a prefix length is an error: the subnet's prefix length
// is required to complete node management addresses later on.
func Parse(raw []byte) (*Topology, error) {
	var topo Topology
	if err := yaml.Unmarshal(raw, &topo); err != nil {
		return nil, serrors.Wrap("unmarshaling yaml", err)
	}
	if topo.Name == "" {
		topo.Name = DefaultName
	}
	if topo.Mgmt.IPv4Subnet == "" {
		return nil, serrors.New("no mgmt.ipv4-subnet in topology file")
	}
	if !strings.Contains(topo.Mgmt.IPv4Subnet, "/") {
		return nil, serrors.New("management subnet without prefix length",
			"subnet", topo.Mgmt.IPv4Subnet)
	}
	if _, err := netip.ParsePrefix(topo.Mgmt.IPv4Subnet); err != nil {
		return nil, serrors.Wrap("parsing management subnet", err,
			"subnet", topo.Mgmt.IPv4Subnet)
	}
	return &topo, nil
}

// MgmtPrefix returns the parsed management subnet. Parse guarantees it is
// well-formed.
func (t *Topology) MgmtPrefix() netip.Prefix {
	prefix, err := netip.ParsePrefix(t.Mgmt.IPv4Subnet)
	if err != nil {
		panic(err)
	}
	return prefix
}

// Validate reports every link endpoint that is malformed or references a
// device missing from the node map. The offending links are still part of
// the topology; callers decide whether to treat the report as fatal.
func (t *Topology) Validate() error {
	var errs serrors.List
	for i, link := range t.Topology.Links {
		if len(link.Endpoints) != 2 {
			errs = append(errs, serrors.New("link must have two endpoints",
				"link", i, "endpoints", len(link.Endpoints)))
			continue
		}
		for _, raw := range link.Endpoints {
			ep, err := ParseEndpoint(raw)
			if err != nil {
				errs = append(errs, serrors.Wrap("parsing endpoint", err, "link", i))
				continue
			}
			if _, ok := t.Topology.Nodes[ep.Device]; !ok {
				errs = append(errs, serrors.New("endpoint references unknown device",
					"link", i, "device", ep.Device))
			}
		}
	}
	return errs.ToError()
}

// Neighbors returns the devices directly connected to name, in link
// declaration order. Multiple links to the same device yield duplicates;
// callers that need a set must deduplicate. Malformed links are skipped,
// they never abort resolution for the remaining links.
func (t *Topology) Neighbors(name string) []string {
	var connected []string
	for _, link := range t.Topology.Links {
		if len(link.Endpoints) != 2 {
			continue
		}
		a, errA := ParseEndpoint(link.Endpoints[0])
		b, errB := ParseEndpoint(link.Endpoints[1])
		if errA != nil || errB != nil {
			continue
		}
		switch name {
		case a.Device:
			connected = append(connected, b.Device)
		case b.Device:
			connected = append(connected, a.Device)
		}
	}
	return connected
}

// NodeNames returns the declared node names in unspecified order.
func (t *Topology) NodeNames() []string {
	names := make([]string, 0, len(t.Topology.Nodes))
	for name := range t.Topology.Nodes {
		names = append(names, name)
	}
	return names
}
