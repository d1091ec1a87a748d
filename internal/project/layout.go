// Package project owns the generated application's file tree: the catalog of
// fixed destination paths and the writer that materializes content into it.
package project

import (
	"os"
	"path/filepath"
)

// Directory names within the output root.
const (
	DirFrontend   = "frontend"
	DirBackend    = "backend"
	DirSrc        = "src"
	DirComponents = "components"
	DirHooks      = "hooks"
	DirTypes      = "types"
)

// Frontend files.
const (
	FileComponent       = "WeatherDisplay.tsx"
	FileComponentStyles = "WeatherDisplay.module.css"
	FileHook            = "useWeather.ts"
	FileCSSTypes        = "css.d.ts"
	FilePackage         = "package.json"
	FileTSConfig        = "tsconfig.json"
	FileViteConfig      = "vite.config.ts"
	FileIndexHTML       = "index.html"
)

// Backend and deployment files.
const (
	FileServer     = "server.ts"
	FileDockerfile = "Dockerfile"
	FileCompose    = "docker-compose.yml"
)

// Layout resolves the fixed destination paths of the generated app relative
// to the output root.
type Layout struct {
	root string
}

// NewLayout builds a layout rooted at the output directory.
func NewLayout(root string) *Layout {
	return &Layout{root: root}
}

// Root returns the output directory.
func (l *Layout) Root() string {
	return l.root
}

// FrontendSrcDir returns frontend/src.
func (l *Layout) FrontendSrcDir() string {
	return filepath.Join(l.root, DirFrontend, DirSrc)
}

// ComponentPath returns the display component destination.
func (l *Layout) ComponentPath() string {
	return filepath.Join(l.FrontendSrcDir(), DirComponents, FileComponent)
}

// ComponentStylesPath returns the component's CSS module destination.
func (l *Layout) ComponentStylesPath() string {
	return filepath.Join(l.FrontendSrcDir(), DirComponents, FileComponentStyles)
}

// HookPath returns the data hook destination.
func (l *Layout) HookPath() string {
	return filepath.Join(l.FrontendSrcDir(), DirHooks, FileHook)
}

// CSSTypesPath returns the CSS module type declaration destination.
func (l *Layout) CSSTypesPath() string {
	return filepath.Join(l.FrontendSrcDir(), DirTypes, FileCSSTypes)
}

// FrontendPackagePath returns frontend/package.json.
func (l *Layout) FrontendPackagePath() string {
	return filepath.Join(l.root, DirFrontend, FilePackage)
}

// FrontendTSConfigPath returns frontend/tsconfig.json.
func (l *Layout) FrontendTSConfigPath() string {
	return filepath.Join(l.root, DirFrontend, FileTSConfig)
}

// ViteConfigPath returns frontend/vite.config.ts.
func (l *Layout) ViteConfigPath() string {
	return filepath.Join(l.root, DirFrontend, FileViteConfig)
}

// IndexHTMLPath returns frontend/index.html.
func (l *Layout) IndexHTMLPath() string {
	return filepath.Join(l.root, DirFrontend, FileIndexHTML)
}

// BackendPackagePath returns backend/package.json.
func (l *Layout) BackendPackagePath() string {
	return filepath.Join(l.root, DirBackend, FilePackage)
}

// BackendTSConfigPath returns backend/tsconfig.json.
func (l *Layout) BackendTSConfigPath() string {
	return filepath.Join(l.root, DirBackend, FileTSConfig)
}

// ServerPath returns backend/src/server.ts.
func (l *Layout) ServerPath() string {
	return filepath.Join(l.root, DirBackend, DirSrc, FileServer)
}

// DockerfilePath returns the Dockerfile destination at the root.
func (l *Layout) DockerfilePath() string {
	return filepath.Join(l.root, FileDockerfile)
}

// ComposePath returns docker-compose.yml at the root.
func (l *Layout) ComposePath() string {
	return filepath.Join(l.root, FileCompose)
}

// Initialize creates the source directories the generated app expects.
func (l *Layout) Initialize() error {
	dirs := []string{
		filepath.Join(l.FrontendSrcDir(), DirComponents),
		filepath.Join(l.FrontendSrcDir(), DirHooks),
		filepath.Join(l.FrontendSrcDir(), DirTypes),
		filepath.Join(l.root, DirBackend, DirSrc),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
