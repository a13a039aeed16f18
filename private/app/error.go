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

// Package app provides helpers for CLI applications.
package app

import (
	"errors"
)

type codeError struct {
	err  error
	code int
}

func (e *codeError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *codeError) Unwrap() error {
	return e.err
}

// WithExitCode attaches an exit code to an error.
func WithExitCode(err error, code int) error {
	return &codeError{err: err, code: code}
}

// ExitCode returns the exit code associated with the error. Errors without
// an attached code map to -1, nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *codeError
	if errors.As(err, &ce) {
		return ce.code
	}
	return -1
}
