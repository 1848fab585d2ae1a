package offlineify_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vibe2apk/internal/offlineify"
)

func TestTriggeredDetectsBabelScript(t *testing.T) {
	html := []byte(`<html><body><script type="text/babel">const x = <div/>;</script></body></html>`)
	require.True(t, offlineify.Triggered(html))
}

func TestTriggeredDetectsKnownCDN(t *testing.T) {
	html := []byte(`<html><head><script src="https://unpkg.com/react@18/umd/react.production.min.js"></script></head></html>`)
	require.True(t, offlineify.Triggered(html))
}

func TestTriggeredDetectsGoogleFontsLink(t *testing.T) {
	html := []byte(`<html><head><link href="https://fonts.googleapis.com/css2?family=Roboto" rel="stylesheet"></head></html>`)
	require.True(t, offlineify.Triggered(html))
}

func TestTriggeredFalseOnPlainHTML(t *testing.T) {
	html := []byte(`<html><head><title>x</title></head><body><h1>hi</h1></body></html>`)
	require.False(t, offlineify.Triggered(html))
}

func TestRewriteVendorsKnownCDNScript(t *testing.T) {
	src := []byte(`<html><head><script src="https://unpkg.com/react@18/umd/react.production.min.js"></script></head><body></body></html>`)

	result, err := offlineify.Rewrite(src, false)
	require.NoError(t, err)

	require.Len(t, result.Assets, 1)
	require.Equal(t, "react.js", result.Assets[0].LocalName)
	require.Contains(t, string(result.HTML), `src="./vendor/react.js"`)
	require.NotContains(t, string(result.HTML), "unpkg.com")
}

func TestRewriteStripsBabelStandaloneTag(t *testing.T) {
	src := []byte(`<html><head><script src="https://unpkg.com/@babel/standalone/babel.min.js"></script></head><body></body></html>`)

	result, err := offlineify.Rewrite(src, false)
	require.NoError(t, err)

	require.NotContains(t, string(result.HTML), "babel")
}

func TestRewriteReplacesBabelBlockWithAppJSReference(t *testing.T) {
	src := []byte(`<html><body><script type="text/babel">const x = 1;</script></body></html>`)

	result, err := offlineify.Rewrite(src, true)
	require.NoError(t, err)

	require.Equal(t, "const x = 1;", result.BabelSource)
	require.Contains(t, string(result.HTML), `src="./app.js"`)
	require.NotContains(t, string(result.HTML), "text/babel")
}

func TestRewriteDropsBabelBlockWithoutCompiledOutput(t *testing.T) {
	src := []byte(`<html><body><script type="text/babel">const x = 1;</script></body></html>`)

	result, err := offlineify.Rewrite(src, false)
	require.NoError(t, err)

	require.NotContains(t, string(result.HTML), "text/babel")
	require.NotContains(t, string(result.HTML), "app.js")
}

func TestRewriteDropsGoogleFontsLink(t *testing.T) {
	src := []byte(`<html><head><link href="https://fonts.googleapis.com/css2?family=Roboto" rel="stylesheet"></head><body></body></html>`)

	result, err := offlineify.Rewrite(src, false)
	require.NoError(t, err)

	require.NotContains(t, string(result.HTML), "fonts.googleapis.com")
}

func TestRewriteDropsGoogleFontsCSSImport(t *testing.T) {
	src := []byte(`<html><head><style>@import url(https://fonts.googleapis.com/css2?family=Roboto);
body { color: red; }</style></head><body></body></html>`)

	result, err := offlineify.Rewrite(src, false)
	require.NoError(t, err)

	require.NotContains(t, string(result.HTML), "fonts.googleapis.com")
	require.Contains(t, string(result.HTML), "color: red")
}

func TestRewriteFlagsTailwindCDN(t *testing.T) {
	src := []byte(`<html><head><script src="https://cdn.tailwindcss.com"></script></head><body></body></html>`)

	result, err := offlineify.Rewrite(src, false)
	require.NoError(t, err)

	require.True(t, result.TailwindTrigger)
	require.False(t, strings.Contains(string(result.HTML), "cdn.tailwindcss.com"))
}
