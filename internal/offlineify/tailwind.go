package offlineify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"vibe2apk/internal/toolexec"
)

// RunTailwindJIT invokes the Tailwind CLI in one-shot JIT mode over the
// rewritten HTML, the compiled app.js (if present), and the original
// HTML, emitting minified CSS at <outputDir>/vendor/tailwind.min.css.
// It is only called when Rewrite reported a Tailwind CDN reference.
func RunTailwindJIT(ctx context.Context, runner toolexec.Runner, outputDir string, scanPaths []string) error {
	vendorDir := filepath.Join(outputDir, "vendor")
	if err := os.MkdirAll(vendorDir, 0o755); err != nil {
		return fmt.Errorf("creating vendor dir: %w", err)
	}

	inputCSS := filepath.Join(outputDir, ".tailwind-input.css")
	body := "@tailwind base;\n@tailwind components;\n@tailwind utilities;\n"
	if err := os.WriteFile(inputCSS, []byte(body), 0o644); err != nil {
		return err
	}
	defer os.Remove(inputCSS)

	outputCSS := filepath.Join(vendorDir, "tailwind.min.css")
	argv := []string{"tailwindcss", "-i", inputCSS, "-o", outputCSS, "--minify"}
	for _, p := range scanPaths {
		argv = append(argv, "--content", p)
	}

	result, err := runner.Run(ctx, toolexec.Command{Argv: argv, Dir: outputDir})
	if err != nil {
		return fmt.Errorf("running tailwindcss: %w", err)
	}
	if !result.Success() {
		return fmt.Errorf("tailwindcss exited %d: %s", result.ExitCode, result.Stderr)
	}
	return nil
}
