package offlineify_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vibe2apk/internal/offlineify"
)

func TestCompileBabelBlockTranspilesJSX(t *testing.T) {
	out, err := offlineify.CompileBabelBlock(`const el = <div className="x">hi</div>;`)
	require.NoError(t, err)
	require.NotContains(t, string(out), "<div")
	require.Contains(t, string(out), "createElement")
}

func TestCompileBabelBlockReportsSyntaxErrors(t *testing.T) {
	_, err := offlineify.CompileBabelBlock(`const x = ;;;`)
	require.Error(t, err)
}
