package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/evanw/esbuild/pkg/api"
)

// BuildScripts bundles js/src/app.js into static/js/app.js so the dev
// server can pick up script edits without a separate node toolchain. The
// bundled output is committed and embedded for production builds.
func BuildScripts(minify bool) error {
	root := sourceRoot()
	entry := filepath.Join(root, "js", "src", "app.js")
	outFile := filepath.Join(root, "static", "js", "app.js")

	buildOpts := api.BuildOptions{
		EntryPoints: []string{entry},
		Bundle:      true,
		Write:       false,
		Outdir:      "out",

		Platform: api.PlatformBrowser,
		Format:   api.FormatIIFE,
		Target:   api.ES2020,

		TreeShaking: api.TreeShakingTrue,
		Sourcemap:   api.SourceMapNone,
		LogLevel:    api.LogLevelWarning,
	}
	if minify {
		buildOpts.MinifyWhitespace = true
		buildOpts.MinifyIdentifiers = true
		buildOpts.MinifySyntax = true
	}

	result := api.Build(buildOpts)
	if len(result.Errors) > 0 {
		var msg string
		for _, err := range result.Errors {
			msg += fmt.Sprintf("%s:%d:%d: %s\n",
				err.Location.File,
				err.Location.Line,
				err.Location.Column,
				err.Text)
		}
		return fmt.Errorf("esbuild errors:\n%s", msg)
	}

	for _, file := range result.OutputFiles {
		if filepath.Ext(file.Path) == ".js" {
			if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			if err := os.WriteFile(outFile, file.Contents, 0o644); err != nil {
				return fmt.Errorf("failed to write bundle: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("no JavaScript output generated")
}

// SourceDir returns this package's on-disk directory so the dev file
// watcher can follow script and style edits.
func SourceDir() string {
	return sourceRoot()
}

// sourceRoot derives the absolute path to this package's directory so the
// bundler works regardless of where the binary is run from.
func sourceRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "internal/ui/resources"
	}
	return filepath.Dir(filename)
}
