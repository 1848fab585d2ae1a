package preflight

import (
	"context"

	"vibe2apk/internal/config"
	"vibe2apk/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable preflight check for cfg: the two
// filesystem roots, the fixed external-CLI toolchain contract, the Android
// SDK, and Java.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Builds directory", cfg.BuildsDir))
	results = append(results, CheckDirectoryAccess("Uploads directory", cfg.UploadsDir))

	binaries := deps.CheckBinaries(ToolchainRequirements())
	javaAvailable := false
	for _, b := range binaries {
		if b.Name == "Java" {
			javaAvailable = b.Available
			continue // superseded by the JAVA_HOME-aware CheckJava result below
		}
		results = append(results, Result{Name: b.Name, Passed: b.Available, Detail: b.Detail})
	}

	results = append(results, CheckAndroidSDK())
	results = append(results, CheckJava(javaAvailable))
	return results
}
