package offlineify

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"vibe2apk/internal/toolexec"
)

// Output describes the self-contained bundle written to outputDir,
// substituted for the original HTML file in the main pipeline.
type Output struct {
	IndexHTMLPath string
	HasAppJS      bool
	VendorCount   int
}

// Process runs the full offlineify sub-pipeline over the HTML document at
// htmlPath, writing index.html, app.js (if applicable), and a vendor/
// subtree into outputDir. It is a caller's responsibility to check
// Triggered first; Process itself always runs the rewrite (a no-op
// rewrite on untriggered input is harmless but wasteful).
func Process(ctx context.Context, client *http.Client, runner toolexec.Runner, htmlPath, outputDir string) (Output, error) {
	src, err := os.ReadFile(htmlPath)
	if err != nil {
		return Output{}, fmt.Errorf("reading html: %w", err)
	}

	probe, err := Rewrite(src, false)
	if err != nil {
		return Output{}, fmt.Errorf("probing babel block: %w", err)
	}
	hasAppJS := probe.BabelSource != ""

	var appJS []byte
	if hasAppJS {
		appJS, err = CompileBabelBlock(probe.BabelSource)
		if err != nil {
			return Output{}, fmt.Errorf("compiling text/babel block: %w", err)
		}
	}

	final, err := Rewrite(src, hasAppJS)
	if err != nil {
		return Output{}, fmt.Errorf("rewriting html: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Output{}, fmt.Errorf("creating output dir: %w", err)
	}

	indexPath := filepath.Join(outputDir, "index.html")
	if err := os.WriteFile(indexPath, final.HTML, 0o644); err != nil {
		return Output{}, fmt.Errorf("writing index.html: %w", err)
	}

	if hasAppJS {
		appJSPath := filepath.Join(outputDir, "app.js")
		if err := os.WriteFile(appJSPath, appJS, 0o644); err != nil {
			return Output{}, fmt.Errorf("writing app.js: %w", err)
		}
	}

	vendorDir := filepath.Join(outputDir, "vendor")
	if err := FetchAssets(ctx, client, final.Assets, vendorDir); err != nil {
		return Output{}, err
	}

	if final.TailwindTrigger {
		scanPaths := []string{indexPath, htmlPath}
		if hasAppJS {
			scanPaths = append(scanPaths, filepath.Join(outputDir, "app.js"))
		}
		if err := RunTailwindJIT(ctx, runner, outputDir, scanPaths); err != nil {
			return Output{}, err
		}
	}

	return Output{IndexHTMLPath: indexPath, HasAppJS: hasAppJS, VendorCount: len(final.Assets)}, nil
}
