package offlineify

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// CompileBabelBlock transforms the raw JSX/ESNext body of a <script
// type="text/babel"> tag into plain browser JS: classic React.createElement
// calls (not the automatic runtime), no dev warnings, wrapped so top-level
// `const`/`let` declarations don't leak as accidental globals.
func CompileBabelBlock(source string) ([]byte, error) {
	result := api.Transform(source, api.TransformOptions{
		Loader:            api.LoaderJSX,
		JSX:               api.JSXTransform,
		Target:            api.ES2017,
		Format:            api.FormatIIFE,
		MinifyWhitespace:  false,
		MinifyIdentifiers: false,
		MinifySyntax:      false,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			msgs = append(msgs, m.Text)
		}
		return nil, fmt.Errorf("compiling babel block: %s", strings.Join(msgs, "; "))
	}
	return result.Code, nil
}
