// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package allbackends

import (
	// Software backend - always available, in-process reference device.
	// Its init() registers it with hal.RegisterBackend() as a side effect
	// of this blank import.
	_ "github.com/gogpu/clik/hal/software"

	// hal/dlopen is deliberately not imported here: it loads a native
	// library from a runtime-supplied path and has no init()-time way to
	// discover one, so it cannot self-register. Callers that want a
	// dlopen backend call dlopen.Open(path) and hal.RegisterBackend
	// themselves.
)
