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

// Package flag provides access to the common clabseed configuration
// values, resolved from command line flags with environment variable
// fallbacks.
package flag

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/freyproject/clabseed/pkg/private/serrors"
)

// Environment variables understood by all commands.
const (
	EnvURL      = "NETBOX_URL"
	EnvAPIToken = "NETBOX_APITOKEN"
)

type stringVal string

func (v *stringVal) Set(val string) error {
	*v = stringVal(val)
	return nil
}

func (v *stringVal) Type() string   { return "string" }
func (v *stringVal) String() string { return string(*v) }

// NetBoxEnvironment resolves the NetBox instance URL and API token. The
// command line flag takes priority over the environment variable. The token
// is intentionally not a flag so it never shows up in shell history or
// process listings.
type NetBoxEnvironment struct {
	url     string
	urlFlag *pflag.Flag
	token   string
}

// Register registers the command line flags. This should be called when
// command line flags are set up, before any command that accesses the
// values is called.
func (e *NetBoxEnvironment) Register(flagSet *pflag.FlagSet) {
	e.urlFlag = flagSet.VarPF((*stringVal)(&e.url), "url", "",
		"NetBox instance URL (defaults to $"+EnvURL+")")
}

// LoadExternalVars loads the values that are not provided as flags from
// the environment. Missing required values are precondition failures.
func (e *NetBoxEnvironment) LoadExternalVars() error {
	if e.urlFlag == nil || !e.urlFlag.Changed {
		e.url = os.Getenv(EnvURL)
	}
	if e.url == "" {
		return serrors.New("NetBox URL not set",
			"env", EnvURL, "flag", "url")
	}
	e.token = os.Getenv(EnvAPIToken)
	if e.token == "" {
		return serrors.New("NetBox API token not set", "env", EnvAPIToken)
	}
	return nil
}

// URL returns the resolved NetBox instance URL.
func (e *NetBoxEnvironment) URL() string {
	return e.url
}

// Token returns the resolved API token.
func (e *NetBoxEnvironment) Token() string {
	return e.token
}
