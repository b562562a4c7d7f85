// SPDX-License-Identifier: MIT

package config

import "errors"

// ErrInvalid marks a scenario that fails validation.
var ErrInvalid = errors.New("config: invalid scenario")
