package projecttype

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/bytedance/sonic"
)

// Type classifies the front-end project's build tooling.
type Type string

const (
	TypeBundler         Type = "bundler"         // Vite-style: config file, `dist` output
	TypeFrameworkStatic Type = "framework-static" // Next-style: config file, `out` output
	TypeToolingManaged  Type = "tooling-managed"  // Create React App-style: `build` output
	TypeUnknown         Type = "unknown"          // best-effort, assume `dist`
)

// PackageManager is one of the three package managers the pipeline knows
// how to drive.
type PackageManager string

const (
	PackageManagerPNPM PackageManager = "pnpm"
	PackageManagerYarn PackageManager = "yarn"
	PackageManagerNPM  PackageManager = "npm"
)

// Detection is the outcome of classifying a project root.
type Detection struct {
	Type           Type
	OutputDir      string
	PackageManager PackageManager
	// ConfigFile is the bundler config file that triggered a bundler-based
	// or framework-static classification, empty for tooling-managed/unknown.
	ConfigFile string
}

var viteConfigNames = []string{"vite.config.js", "vite.config.ts", "vite.config.mts", "vite.config.mjs"}
var nextConfigNames = []string{"next.config.js", "next.config.ts", "next.config.mjs"}

type manifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Detect classifies the project rooted at dir, per spec.md §4.5.7's fixed
// signal table, and picks a package manager: pnpm if pnpm-lock.yaml exists
// and pnpm is installed, yarn if yarn.lock exists and yarn is installed,
// npm otherwise.
func Detect(dir string) Detection {
	det := Detection{Type: TypeUnknown, OutputDir: "dist"}

	if cfg := firstExisting(dir, viteConfigNames); cfg != "" {
		det.Type = TypeBundler
		det.OutputDir = "dist"
		det.ConfigFile = cfg
	} else if cfg := firstExisting(dir, nextConfigNames); cfg != "" {
		det.Type = TypeFrameworkStatic
		det.OutputDir = "out"
		det.ConfigFile = cfg
	} else if usesReactScripts(dir) {
		det.Type = TypeToolingManaged
		det.OutputDir = "build"
	}

	det.PackageManager = detectPackageManager(dir)
	return det
}

func firstExisting(dir string, names []string) string {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func usesReactScripts(dir string) bool {
	m, err := readManifest(dir)
	if err != nil {
		return false
	}
	if _, ok := m.Dependencies["react-scripts"]; ok {
		return true
	}
	_, ok := m.DevDependencies["react-scripts"]
	return ok
}

func readManifest(dir string) (manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return manifest{}, err
	}
	var m manifest
	if err := sonic.Unmarshal(raw, &m); err != nil {
		return manifest{}, err
	}
	return m, nil
}

func detectPackageManager(dir string) PackageManager {
	if fileExists(filepath.Join(dir, "pnpm-lock.yaml")) && commandExists("pnpm") {
		return PackageManagerPNPM
	}
	if fileExists(filepath.Join(dir, "yarn.lock")) && commandExists("yarn") {
		return PackageManagerYarn
	}
	return PackageManagerNPM
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// commandExists is a var so tests can stub out the PATH lookup.
var commandExists = func(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
