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

package flag_test

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freyproject/clabseed/private/app/flag"
)

func TestNetBoxEnvironment(t *testing.T) {
	setupFlags := func(t *testing.T, fs *pflag.FlagSet) {
		require.NoError(t, fs.Parse([]string{"--url", "https://netbox.flag"}))
	}
	noFlags := func(t *testing.T, fs *pflag.FlagSet) {
		require.NoError(t, fs.Parse([]string{}))
	}
	setupEnv := func(t *testing.T) {
		tempEnv(t, flag.EnvURL, "https://netbox.env")
		tempEnv(t, flag.EnvAPIToken, "token-env")
	}
	tokenOnlyEnv := func(t *testing.T) {
		tempEnv(t, flag.EnvAPIToken, "token-env")
	}
	noEnv := func(t *testing.T) {}

	testCases := map[string]struct {
		flags     func(t *testing.T, fs *pflag.FlagSet)
		env       func(t *testing.T)
		assertErr assert.ErrorAssertionFunc
		url       string
		token     string
	}{
		"no flag, no env": {
			flags:     noFlags,
			env:       noEnv,
			assertErr: assert.Error,
		},
		"env values set": {
			flags:     noFlags,
			env:       setupEnv,
			assertErr: assert.NoError,
			url:       "https://netbox.env",
			token:     "token-env",
		},
		"all set, flag precedence": {
			flags:     setupFlags,
			env:       setupEnv,
			assertErr: assert.NoError,
			url:       "https://netbox.flag",
			token:     "token-env",
		},
		"flag without token": {
			flags:     setupFlags,
			env:       noEnv,
			assertErr: assert.Error,
		},
		"token without URL": {
			flags:     noFlags,
			env:       tokenOnlyEnv,
			assertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var env flag.NetBoxEnvironment
			fs := pflag.NewFlagSet("testSet", pflag.ContinueOnError)
			env.Register(fs)
			tc.flags(t, fs)
			tc.env(t)
			err := env.LoadExternalVars()
			tc.assertErr(t, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.url, env.URL())
			assert.Equal(t, tc.token, env.Token())
		})
	}
}

// tempEnv sets an environment variable temporarily and removes it at the end
// of the test.
func tempEnv(t *testing.T, key, val string) {
	require.NoError(t, os.Setenv(key, val))
	t.Cleanup(func() { require.NoError(t, os.Unsetenv(key)) })
}
