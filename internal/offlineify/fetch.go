package offlineify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

// FetchAssets downloads every vendor Asset into destDir concurrently,
// failing the whole call on the first error — spec.md §4.5.4 step 3
// requires the pipeline to fail outright if any vendor fetch fails.
func FetchAssets(ctx context.Context, client *http.Client, assets []Asset, destDir string) error {
	if len(assets) == 0 {
		return nil
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("creating vendor dir: %w", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(assets))
	for i, asset := range assets {
		wg.Add(1)
		go func(i int, asset Asset) {
			defer wg.Done()
			errs[i] = fetchOne(ctx, client, asset, destDir)
		}(i, asset)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("fetching %s: %w", assets[i].LocalName, err)
		}
	}
	return nil
}

func fetchOne(ctx context.Context, client *http.Client, asset Asset, destDir string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.SourceURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, asset.SourceURL)
	}

	out, err := os.Create(filepath.Join(destDir, asset.LocalName))
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}
