package repair_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vibe2apk/internal/projecttype"
	"vibe2apk/internal/repair"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(raw)
}

func TestRepairIsNoOpForNonBundlerProjects(t *testing.T) {
	dir := t.TempDir()
	log, err := repair.Repair(dir, projecttype.Detection{Type: projecttype.TypeUnknown})
	require.NoError(t, err)
	require.Empty(t, log)
}

func TestRepairInjectsBasePath(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "vite.config.js", "import { defineConfig } from 'vite'\nexport default defineConfig({\n  plugins: [],\n})\n")

	det := projecttype.Detection{Type: projecttype.TypeBundler, ConfigFile: cfgPath}
	log, err := repair.Repair(dir, det)
	require.NoError(t, err)

	require.Contains(t, readFile(t, cfgPath), `base: './'`)
	require.NotEmpty(t, log)
}

func TestRepairIsIdempotentOnBasePath(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "vite.config.js", "export default defineConfig({\n  base: './',\n  plugins: [],\n})\n")

	det := projecttype.Detection{Type: projecttype.TypeBundler, ConfigFile: cfgPath}
	_, err := repair.Repair(dir, det)
	require.NoError(t, err)

	require.Equal(t, 1, countOccurrences(readFile(t, cfgPath), "base: './'"))
}

func TestRepairAddsLegacyPluginAndDevDependencies(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "vite.config.js", "export default defineConfig({\n  plugins: [react()],\n})\n")
	pkgPath := writeFile(t, dir, "package.json", `{"dependencies":{}}`)

	det := projecttype.Detection{Type: projecttype.TypeBundler, ConfigFile: cfgPath}
	_, err := repair.Repair(dir, det)
	require.NoError(t, err)

	require.Contains(t, readFile(t, cfgPath), "plugin-legacy")
	require.Contains(t, readFile(t, pkgPath), "@vitejs/plugin-legacy")
	require.Contains(t, readFile(t, pkgPath), "regenerator-runtime")
}

func TestRepairCreatesMissingEntryCSSWithTailwindDirectives(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "vite.config.js", "export default defineConfig({})\n")
	writeFile(t, dir, "index.html", `<html><head><link rel="stylesheet" href="/index.css"></head></html>`)
	writeFile(t, dir, "tailwind.config.js", "module.exports = {}")

	det := projecttype.Detection{Type: projecttype.TypeBundler, ConfigFile: cfgPath}
	_, err := repair.Repair(dir, det)
	require.NoError(t, err)

	css := readFile(t, filepath.Join(dir, "index.css"))
	require.Contains(t, css, "@tailwind base;")
	require.Contains(t, css, "html, body, #root")
}

func TestRepairScaffoldsTailwindConfigWhenClassesDetected(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "vite.config.js", "export default defineConfig({})\n")
	writeFile(t, dir, "index.html", `<html><body><div class="flex w-full h-screen"></div></body></html>`)

	det := projecttype.Detection{Type: projecttype.TypeBundler, ConfigFile: cfgPath}
	_, err := repair.Repair(dir, det)
	require.NoError(t, err)

	require.FileExists(t, filepath.Join(dir, "tailwind.config.js"))
	require.FileExists(t, filepath.Join(dir, "postcss.config.js"))
}

func TestRepairAddsKnownImplicitPeerDependency(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "vite.config.js", "export default defineConfig({})\n")
	pkgPath := writeFile(t, dir, "package.json", `{"dependencies":{"recharts":"^2.10.0"}}`)

	det := projecttype.Detection{Type: projecttype.TypeBundler, ConfigFile: cfgPath}
	log, err := repair.Repair(dir, det)
	require.NoError(t, err)

	require.Contains(t, readFile(t, pkgPath), "react-is")
	require.True(t, containsSubstring(log, "react-is"))
}

func TestRepairAddsWatchlistedImportNotInstalled(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "vite.config.js", "export default defineConfig({})\n")
	pkgPath := writeFile(t, dir, "package.json", `{"dependencies":{}}`)
	writeFile(t, dir, "src/App.jsx", `import classnames from 'classnames'\nexport default function App() {}\n`)

	det := projecttype.Detection{Type: projecttype.TypeBundler, ConfigFile: cfgPath}
	_, err := repair.Repair(dir, det)
	require.NoError(t, err)

	require.Contains(t, readFile(t, pkgPath), "classnames")
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
		}
	}
	return count
}

func containsSubstring(log repair.Log, needle string) bool {
	for _, line := range log {
		if len(line) >= len(needle) {
			for i := 0; i+len(needle) <= len(line); i++ {
				if line[i:i+len(needle)] == needle {
					return true
				}
			}
		}
	}
	return false
}
