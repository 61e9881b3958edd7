package birdtracker

import (
	_ "embed"
)

// Version is the release of the birdtracker tool, read from the VERSION file.
// It is unrelated to the site version kept in version.json.
//
//go:embed VERSION
var Version string
