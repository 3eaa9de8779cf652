// Package search trawls a URI (local path or any TileDB VFS-backed object
// store) for raw ACF input files.
//
// Adapted from github.com/sixy6e/go-gsf's gsf.FindGsf: same VFS-recursive
// trawl, retargeted at the *.rawacf extension instead of *.gsf.
package search

import (
	"path/filepath"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// trawl recursively walks uri via vfs, collecting every file whose basename
// matches pattern.
func trawl(vfs *tiledb.VFS, pattern string, uri string, items []string) ([]string, error) {
	dirs, files, err := vfs.List(uri)
	if err != nil {
		return items, err
	}

	for _, file := range files {
		match, err := filepath.Match(pattern, filepath.Base(file))
		if err != nil {
			return items, err
		}
		if match {
			items = append(items, file)
		}
	}

	for _, dir := range dirs {
		items, err = trawl(vfs, pattern, dir, items)
		if err != nil {
			return items, err
		}
	}

	return items, nil
}

// FindRawacf recursively searches uri for *.rawacf files. configURI, if
// non-empty, points to a TileDB config enabling access to a constrained
// object store (e.g. AWS S3); an empty configURI uses a generic local
// config.
func FindRawacf(uri, configURI string) ([]string, error) {
	var (
		config *tiledb.Config
		err    error
	)

	if configURI == "" {
		config, err = tiledb.NewConfig()
	} else {
		config, err = tiledb.LoadConfig(configURI)
	}
	if err != nil {
		return nil, err
	}
	defer config.Free()

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return nil, err
	}
	defer ctx.Free()

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		return nil, err
	}
	defer vfs.Free()

	return trawl(vfs, "*.rawacf", uri, make([]string, 0))
}
