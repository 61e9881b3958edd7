// Package birdtracker is the composition root for the bird illustration
// pipeline.
//
// A project is a directory holding a catalog of bird species
// (public/birds.json), a folder of raw PNG illustrations (raw_png/) and the
// WebP assets derived from them (public/full/ and public/thumb/). A build
// discovers raw images that are not yet recorded as drawn, converts each into
// a padded square WebP and a thumbnail, marks the bird as drawn, appends a
// changelog line and bumps the site version. Every build ends with an
// integrity report comparing the catalog against the files on disk.
//
// Usage:
//
//	project, err := birdtracker.New(".", birdtracker.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	result, err := project.Build(ctx)
//
// The birdtracker command wraps the same operations (build, check, watch,
// serve, ship) for use from a shell.
package birdtracker
