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

package app

import (
	"github.com/freyproject/clabseed/pkg/log"
	"github.com/freyproject/clabseed/pkg/private/serrors"
)

// LogLevelUsage is the usage text for the log.level flag.
const LogLevelUsage = "Console logging level verbosity (debug|info|error)"

// SetupLog sets up the logging for a command line application.
func SetupLog(level string) error {
	if err := log.Setup(log.Config{
		Console: log.ConsoleConfig{
			Level:         level,
			DisableCaller: true,
		},
	}); err != nil {
		return serrors.Wrap("setting up logging", err)
	}
	return nil
}
