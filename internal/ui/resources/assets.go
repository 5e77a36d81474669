// Package resources serves the console's static assets and bundles its
// client scripts.
package resources

// StaticDirectoryPath is the path to static assets from the project root.
const StaticDirectoryPath = "internal/ui/resources/static"
