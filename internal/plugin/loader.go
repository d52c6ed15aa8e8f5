package plugin

import (
	"os"
	"path/filepath"
)

// Loader opens a plugin by id from a concrete path, or locates one by
// searching a path list (spec §4.6 "Loader abstraction: the host
// holds an ordered list of loaders, each able to open(id, path) and
// optionally find(id)").
type Loader interface {
	Name() string
	// Open loads the plugin at path and returns its callbacks and
	// self-reported metadata.
	Open(id, path string) (Callbacks, Meta, error)
	// Find searches searchDirs for a file named id with one of exts,
	// returning the resolved path.
	Find(id string, searchDirs []string, exts []string) (path string, ok bool)
}

// findInDirs is the shared search helper every Loader.Find
// implementation uses: irccd's native and script loaders both search
// a configured path list and a set of acceptable extensions (spec
// §4.6).
func findInDirs(id string, searchDirs []string, exts []string) (string, bool) {
	for _, dir := range searchDirs {
		for _, ext := range exts {
			candidate := filepath.Join(dir, id+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
	}
	return "", false
}
