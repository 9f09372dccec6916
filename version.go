package cartwise

import _ "embed"

// Version is the release of the cartwise module.
//
//go:embed VERSION
var Version string
