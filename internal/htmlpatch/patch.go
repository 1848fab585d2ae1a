package htmlpatch

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CSPContent is the permissive policy the shell webview needs to load
// bundled local resources: assets under the "file://"-like gap:/content:
// schemes, inline scripts injected by the shell, and eval used by some
// front-end bundlers' runtime.
const CSPContent = `default-src * 'self' 'unsafe-inline' 'unsafe-eval' data: gap: content:`

const cordovaScriptSrc = "cordova.js"

// PrepareForMobileShell parses src as an HTML document and idempotently
// inserts a viewport meta tag, a CSP meta tag, and a cordova.js script tag
// if each is missing, returning the re-serialized document. Calling it
// again on its own output is a no-op — every insertion first checks
// whether an equivalent node already exists.
func PrepareForMobileShell(src []byte) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}

	head := findFirst(doc, atom.Head)
	body := findFirst(doc, atom.Body)

	if head != nil && !hasMeta(head, "name", "viewport") {
		head.AppendChild(metaNode("name", "viewport", "width=device-width, initial-scale=1.0"))
	}
	if head != nil && !hasMeta(head, "http-equiv", "Content-Security-Policy") {
		head.AppendChild(metaNode("http-equiv", "Content-Security-Policy", CSPContent))
	}
	if body != nil && !hasScriptSrc(body, cordovaScriptSrc) {
		body.AppendChild(scriptNode(cordovaScriptSrc))
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func hasMeta(head *html.Node, attrKey, attrVal string) bool {
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Meta {
			continue
		}
		if v, ok := attr(c, attrKey); ok && strings.EqualFold(v, attrVal) {
			return true
		}
	}
	return false
}

func hasScriptSrc(body *html.Node, src string) bool {
	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Script {
			if v, ok := attr(n, "src"); ok && strings.Contains(v, src) {
				found = true
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body)
	return found
}

func metaNode(attrKey, attrVal, content string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "meta",
		DataAtom: atom.Meta,
		Attr: []html.Attribute{
			{Key: attrKey, Val: attrVal},
			{Key: "content", Val: content},
		},
	}
}

func scriptNode(src string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "script",
		DataAtom: atom.Script,
		Attr:     []html.Attribute{{Key: "src", Val: src}},
	}
}
