package projecttype_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vibe2apk/internal/projecttype"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDetectFindsViteConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "vite.config.ts", "export default {}")

	det := projecttype.Detect(dir)

	require.Equal(t, projecttype.TypeBundler, det.Type)
	require.Equal(t, "dist", det.OutputDir)
	require.NotEmpty(t, det.ConfigFile)
}

func TestDetectFindsNextConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "next.config.js", "module.exports = {}")

	det := projecttype.Detect(dir)

	require.Equal(t, projecttype.TypeFrameworkStatic, det.Type)
	require.Equal(t, "out", det.OutputDir)
}

func TestDetectFindsReactScriptsDependency(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"dependencies":{"react-scripts":"5.0.1"}}`)

	det := projecttype.Detect(dir)

	require.Equal(t, projecttype.TypeToolingManaged, det.Type)
	require.Equal(t, "build", det.OutputDir)
}

func TestDetectFindsReactScriptsDevDependency(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"devDependencies":{"react-scripts":"5.0.1"}}`)

	det := projecttype.Detect(dir)

	require.Equal(t, projecttype.TypeToolingManaged, det.Type)
}

func TestDetectFallsBackToUnknown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html></html>")

	det := projecttype.Detect(dir)

	require.Equal(t, projecttype.TypeUnknown, det.Type)
	require.Equal(t, "dist", det.OutputDir)
}

func TestDetectPrefersViteOverReactScripts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "vite.config.js", "export default {}")
	writeFile(t, dir, "package.json", `{"dependencies":{"react-scripts":"5.0.1"}}`)

	det := projecttype.Detect(dir)

	require.Equal(t, projecttype.TypeBundler, det.Type)
}

func TestDetectPackageManagerPrefersPNPMWhenInstalled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pnpm-lock.yaml", "lockfileVersion: 6.0")

	restore := projecttype.StubCommandExists(func(name string) bool { return name == "pnpm" })
	defer restore()

	det := projecttype.Detect(dir)

	require.Equal(t, projecttype.PackageManagerPNPM, det.PackageManager)
}

func TestDetectPackageManagerFallsBackToNPMWhenPNPMMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pnpm-lock.yaml", "lockfileVersion: 6.0")

	restore := projecttype.StubCommandExists(func(name string) bool { return false })
	defer restore()

	det := projecttype.Detect(dir)

	require.Equal(t, projecttype.PackageManagerNPM, det.PackageManager)
}

func TestDetectPackageManagerPrefersYarnOverNPM(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "yarn.lock", "# yarn lockfile v1")

	restore := projecttype.StubCommandExists(func(name string) bool { return name == "yarn" })
	defer restore()

	det := projecttype.Detect(dir)

	require.Equal(t, projecttype.PackageManagerYarn, det.PackageManager)
}

func TestDetectPackageManagerDefaultsToNPM(t *testing.T) {
	dir := t.TempDir()

	det := projecttype.Detect(dir)

	require.Equal(t, projecttype.PackageManagerNPM, det.PackageManager)
}
