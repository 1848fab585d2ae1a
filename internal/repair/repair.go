package repair

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"

	"vibe2apk/internal/projecttype"
)

// Log records each change repair made, in order, for status reporting.
type Log []string

func (l *Log) add(format string, args ...any) {
	*l = append(*l, fmt.Sprintf(format, args...))
}

// legacyPeerDependencies maps a package name to the peer packages it needs
// at runtime but is known to not declare, and the version range to pin
// when adding the peer.
var legacyPeerDependencies = map[string]map[string]string{
	"recharts":            {"react-is": "^18.2.0"},
	"@mui/x-charts":       {"react-is": "^18.2.0"},
	"react-beautiful-dnd": {"react-is": "^18.2.0"},
}

// implicitImportWatchlist covers bare module specifiers seen imported in
// AI-generated sources without a matching package.json entry.
var implicitImportWatchlist = map[string]string{
	"react-is":            "^18.2.0",
	"prop-types":          "^15.8.1",
	"classnames":          "^2.5.1",
	"regenerator-runtime": "^0.14.1",
}

var nodeBuiltins = map[string]bool{
	"assert": true, "buffer": true, "crypto": true, "events": true, "fs": true,
	"http": true, "https": true, "os": true, "path": true, "stream": true,
	"url": true, "util": true, "zlib": true,
}

var (
	baseKeyRe        = regexp.MustCompile(`\bbase\s*:`)
	legacyPluginRe   = regexp.MustCompile(`@vitejs/plugin-legacy`)
	defineConfigRe   = regexp.MustCompile(`(defineConfig\(\s*\{|export\s+default\s*\{)`)
	pluginsArrayRe   = regexp.MustCompile(`plugins\s*:\s*\[`)
	tailwindClassRe  = regexp.MustCompile(`\bclass(Name)?\s*=\s*["'\x60][^"'\x60]*\b(flex|grid|text-|bg-|p-\d|m-\d|w-full|h-screen)\b`)
	importSpecifierRe = regexp.MustCompile(`(?:import\s+(?:[\w*{}\s,]+from\s+)?|require\(\s*)["']([^"'./][^"']*)["']`)
	cssLinkRe        = regexp.MustCompile(`href=["']([^"']*index\.css)["']`)
)

const fullSizeReset = "\nhtml, body, #root { height: 100%; width: 100%; margin: 0; padding: 0; }\n"

// Repair applies spec.md §4.5.8's mutations to a bundler-based project
// rooted at dir. It is a no-op for any other project type.
func Repair(dir string, det projecttype.Detection) (Log, error) {
	var log Log
	if det.Type != projecttype.TypeBundler || det.ConfigFile == "" {
		return log, nil
	}

	if err := repairBasePath(det.ConfigFile, &log); err != nil {
		return log, err
	}
	if err := repairLegacyPlugin(det.ConfigFile, dir, &log); err != nil {
		return log, err
	}
	tailwindUsed, err := repairEntryCSS(dir, &log)
	if err != nil {
		return log, err
	}
	if tailwindUsed {
		if err := repairTailwindScaffold(dir, &log); err != nil {
			return log, err
		}
	}
	if err := repairImplicitPeerDependencies(dir, &log); err != nil {
		return log, err
	}

	return log, nil
}

var nextOutputKeyRe = regexp.MustCompile(`\boutput\s*:`)

// WriteNextStaticExport ensures a Next.js config forces a static export
// (`output: 'export'`), per spec.md §4.5.3's "if Next-style: write a
// static-export configuration": the wrapper-style Android pipeline needs a
// plain directory of static files, not a Node server. No-op if an output
// mode is already configured.
func WriteNextStaticExport(configFile string) (bool, error) {
	raw, err := os.ReadFile(configFile)
	if err != nil {
		return false, err
	}
	if nextOutputKeyRe.Match(raw) {
		return false, nil
	}

	content := string(raw)
	loc := defineConfigRe.FindStringIndex(content)
	if loc == nil {
		return false, nil
	}
	insertAt := loc[1]
	patched := content[:insertAt] + "\n  output: 'export',\n  images: { unoptimized: true }," + content[insertAt:]
	if err := os.WriteFile(configFile, []byte(patched), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

func repairBasePath(configFile string, log *Log) error {
	raw, err := os.ReadFile(configFile)
	if err != nil {
		return err
	}
	if baseKeyRe.Match(raw) {
		return nil
	}
	loc := defineConfigRe.FindIndex(raw)
	if loc == nil {
		return nil
	}
	insertAt := loc[1]
	patched := append(append(append([]byte{}, raw[:insertAt]...), []byte("\n  base: './',")...), raw[insertAt:]...)
	if err := os.WriteFile(configFile, patched, 0o644); err != nil {
		return err
	}
	log.add("injected base: './' into %s", filepath.Base(configFile))
	return nil
}

func repairLegacyPlugin(configFile, dir string, log *Log) error {
	raw, err := os.ReadFile(configFile)
	if err != nil {
		return err
	}
	if legacyPluginRe.Match(raw) {
		return nil
	}

	content := string(raw)
	if !strings.Contains(content, "plugin-legacy") {
		content = "import legacy from '@vitejs/plugin-legacy'\n" + content
	}
	if loc := pluginsArrayRe.FindStringIndex(content); loc != nil {
		insertAt := loc[1]
		injected := "\n    legacy({ targets: ['chrome >= 52', 'android >= 5'] }),"
		content = content[:insertAt] + injected + content[insertAt:]
	} else if loc := defineConfigRe.FindStringIndex(content); loc != nil {
		insertAt := loc[1]
		injected := "\n  plugins: [legacy({ targets: ['chrome >= 52', 'android >= 5'] })],"
		content = content[:insertAt] + injected + content[insertAt:]
	}

	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		return err
	}
	log.add("added @vitejs/plugin-legacy targeting chrome >= 52, android >= 5")

	if err := addDevDependencies(dir, map[string]string{
		"@vitejs/plugin-legacy": "^5.4.2",
		"regenerator-runtime":   "^0.14.1",
		"terser":                "^5.31.0",
	}, log); err != nil {
		return err
	}
	return nil
}

func repairEntryCSS(dir string, log *Log) (bool, error) {
	htmlPath := filepath.Join(dir, "index.html")
	htmlRaw, err := os.ReadFile(htmlPath)
	if err != nil {
		return false, nil
	}
	m := cssLinkRe.FindStringSubmatch(string(htmlRaw))
	if m == nil {
		return tailwindInUse(dir), nil
	}
	cssRelPath := strings.TrimPrefix(m[1], "./")
	cssPath := filepath.Join(dir, cssRelPath)
	if _, err := os.Stat(cssPath); err == nil {
		return tailwindInUse(dir), nil
	}

	tailwind := tailwindInUse(dir)
	var body strings.Builder
	if tailwind {
		body.WriteString("@tailwind base;\n@tailwind components;\n@tailwind utilities;\n")
	}
	body.WriteString(fullSizeReset)

	if err := os.MkdirAll(filepath.Dir(cssPath), 0o755); err != nil {
		return tailwind, err
	}
	if err := os.WriteFile(cssPath, []byte(body.String()), 0o644); err != nil {
		return tailwind, err
	}
	log.add("created missing entry stylesheet %s", cssRelPath)
	return tailwind, nil
}

func tailwindInUse(dir string) bool {
	for _, name := range []string{"tailwind.config.js", "tailwind.config.ts", "tailwind.config.cjs"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	found := false
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || found {
			return nil
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".html" && ext != ".jsx" && ext != ".tsx" && ext != ".js" && ext != ".ts" {
			return nil
		}
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		if strings.Contains(string(raw), "tailwindcss") || tailwindClassRe.Match(raw) {
			found = true
		}
		return nil
	})
	return found
}

func repairTailwindScaffold(dir string, log *Log) error {
	for _, name := range []string{"tailwind.config.js", "tailwind.config.ts", "tailwind.config.cjs"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return nil
		}
	}

	config := `/** @type {import('tailwindcss').Config} */
module.exports = {
  content: ["./index.html", "./src/**/*.{js,ts,jsx,tsx}"],
  theme: { extend: {} },
  plugins: [],
}
`
	if err := os.WriteFile(filepath.Join(dir, "tailwind.config.js"), []byte(config), 0o644); err != nil {
		return err
	}

	postcss := `module.exports = {
  plugins: { tailwindcss: {}, autoprefixer: {} },
}
`
	if err := os.WriteFile(filepath.Join(dir, "postcss.config.js"), []byte(postcss), 0o644); err != nil {
		return err
	}

	log.add("scaffolded tailwind.config.js and postcss.config.js")
	return addDevDependencies(dir, map[string]string{
		"tailwindcss":  "^3.4.0",
		"postcss":      "^8.4.0",
		"autoprefixer": "^10.4.0",
	}, log)
}

func repairImplicitPeerDependencies(dir string, log *Log) error {
	manifestPath := filepath.Join(dir, "package.json")
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil
	}
	var doc map[string]any
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return err
	}
	deps := stringMap(doc["dependencies"])
	toAdd := map[string]string{}

	for pkg, peers := range legacyPeerDependencies {
		if _, installed := deps[pkg]; !installed {
			continue
		}
		for peer, version := range peers {
			if _, have := deps[peer]; !have {
				toAdd[peer] = version
			}
		}
	}

	imports, err := scanImportSpecifiers(dir)
	if err != nil {
		return err
	}
	for _, spec := range imports {
		root := strings.SplitN(spec, "/", 2)[0]
		if strings.HasPrefix(root, "@") {
			parts := strings.SplitN(spec, "/", 3)
			if len(parts) >= 2 {
				root = parts[0] + "/" + parts[1]
			}
		}
		version, watched := implicitImportWatchlist[root]
		if !watched || nodeBuiltins[root] {
			continue
		}
		if _, have := deps[root]; have {
			continue
		}
		toAdd[root] = version
	}

	if len(toAdd) == 0 {
		return nil
	}
	if deps == nil {
		deps = map[string]any{}
		doc["dependencies"] = deps
	}
	for pkg, version := range toAdd {
		deps[pkg] = version
		log.add("added implicit dependency %s@%s", pkg, version)
	}

	out, err := sonic.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(manifestPath, out, 0o644)
}

func scanImportSpecifiers(dir string) ([]string, error) {
	seen := map[string]bool{}
	var specs []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".js", ".jsx", ".ts", ".tsx":
		default:
			return nil
		}
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		for _, m := range importSpecifierRe.FindAllStringSubmatch(string(raw), -1) {
			spec := m[1]
			if !seen[spec] {
				seen[spec] = true
				specs = append(specs, spec)
			}
		}
		return nil
	})
	return specs, err
}

func addDevDependencies(dir string, add map[string]string, log *Log) error {
	manifestPath := filepath.Join(dir, "package.json")
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil
	}
	var doc map[string]any
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return err
	}
	devDeps := stringMap(doc["devDependencies"])
	if devDeps == nil {
		devDeps = map[string]any{}
		doc["devDependencies"] = devDeps
	}
	changed := false
	for pkg, version := range add {
		if _, have := devDeps[pkg]; have {
			continue
		}
		devDeps[pkg] = version
		changed = true
	}
	if !changed {
		return nil
	}
	out, err := sonic.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(manifestPath, out, 0o644)
}

func stringMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
