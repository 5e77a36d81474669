//go:build dev

package views

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// templatesFS reads from the source tree so template edits show up on
// the next render without a rebuild.
var templatesFS fs.FS = os.DirFS(SourceDir())

// SourceDir derives the absolute path to this package's directory so
// dev rendering and the file watcher work regardless of where the
// binary is run from.
func SourceDir() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "internal/ui/views"
	}
	return filepath.Dir(filename)
}
