//go:build !dev

package views

import (
	"embed"
	"io/fs"
)

//go:embed templates
var embeddedTemplates embed.FS

// templatesFS serves the templates compiled into the binary.
var templatesFS fs.FS = embeddedTemplates

// SourceDir returns the on-disk template directory in dev builds. Prod
// builds render from the embedded copy, so there is nothing to watch.
func SourceDir() string {
	return ""
}
