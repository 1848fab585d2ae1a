package offlineify

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// cdnLibrary is a well-known CDN-hosted script the rewrite recognizes by a
// substring of its host+path. The original src is kept as the fetch URL so
// whatever version the page referenced is the version vendored.
type cdnLibrary struct {
	hostSubstr string
	localName  string
}

var knownCDNLibraries = []cdnLibrary{
	{"unpkg.com/react-dom@", "react-dom.js"},
	{"unpkg.com/react@", "react.js"},
	{"cdn.jsdelivr.net/npm/react-dom@", "react-dom.js"},
	{"cdn.jsdelivr.net/npm/react@", "react.js"},
	{"cdn.jsdelivr.net/npm/vue@", "vue.js"},
	{"cdnjs.cloudflare.com/ajax/libs/jquery", "jquery.js"},
	{"cdn.jsdelivr.net/npm/axios", "axios.js"},
	{"cdn.jsdelivr.net/npm/lodash", "lodash.js"},
	{"unpkg.com/prop-types@", "prop-types.js"},
}

var babelStandaloneHosts = []string{
	"unpkg.com/@babel/standalone",
	"cdn.jsdelivr.net/npm/@babel/standalone",
}

const tailwindCDNHost = "cdn.tailwindcss.com"

var knownCDNHosts = func() []string {
	hosts := []string{tailwindCDNHost}
	hosts = append(hosts, babelStandaloneHosts...)
	for _, lib := range knownCDNLibraries {
		hosts = append(hosts, lib.hostSubstr)
	}
	return hosts
}()

const googleFontsHost = "fonts.googleapis.com"

// Asset is a vendor file the rewrite needs fetched into the output
// directory's vendor/ subtree before the pipeline continues.
type Asset struct {
	LocalName string
	SourceURL string
}

// Result is the outcome of rewriting one HTML document.
type Result struct {
	HTML            []byte
	BabelSource     string // raw text/babel script content, empty if none found
	Assets          []Asset
	TailwindTrigger bool
}

// Triggered reports whether src matches any offlineify trigger: a known
// CDN host, a text/babel script tag, or a Google Fonts reference.
func Triggered(src []byte) bool {
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return false
	}
	triggered := false
	walk(doc, func(n *html.Node) {
		if triggered || n.Type != html.ElementNode {
			return
		}
		switch n.DataAtom {
		case atom.Script:
			if v, ok := attrValue(n, "type"); ok && strings.EqualFold(v, "text/babel") {
				triggered = true
			}
			if v, ok := attrValue(n, "src"); ok && matchesAnyHost(v, knownCDNHosts) {
				triggered = true
			}
		case atom.Link:
			if v, ok := attrValue(n, "href"); ok && strings.Contains(v, googleFontsHost) {
				triggered = true
			}
		case atom.Style:
			if strings.Contains(textContent(n), googleFontsHost) {
				triggered = true
			}
		}
	})
	return triggered
}

// Rewrite applies the fixed rewrite table from spec.md §4.5.4 step 2 to an
// HTML document: strips the Babel standalone tag, replaces the text/babel
// script with a reference to the compiled app.js, rewrites known CDN
// script tags to local vendor paths, and drops Google Fonts references.
func Rewrite(src []byte, hasAppJS bool) (Result, error) {
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return Result{}, err
	}

	var result Result
	var toRemove []*html.Node
	var babelNode *html.Node

	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.DataAtom {
		case atom.Script:
			if v, ok := attrValue(n, "type"); ok && strings.EqualFold(v, "text/babel") && babelNode == nil {
				babelNode = n
				result.BabelSource = textContent(n)
				return
			}
			src, hasSrc := attrValue(n, "src")
			if !hasSrc {
				return
			}
			if matchesAnyHost(src, babelStandaloneHosts) {
				toRemove = append(toRemove, n)
				return
			}
			if strings.Contains(src, tailwindCDNHost) {
				result.TailwindTrigger = true
				toRemove = append(toRemove, n)
				return
			}
			for _, lib := range knownCDNLibraries {
				if strings.Contains(src, lib.hostSubstr) {
					setAttr(n, "src", "./vendor/"+lib.localName)
					result.Assets = append(result.Assets, Asset{LocalName: lib.localName, SourceURL: src})
					return
				}
			}
		case atom.Link:
			if v, ok := attrValue(n, "href"); ok && strings.Contains(v, googleFontsHost) {
				toRemove = append(toRemove, n)
			}
		case atom.Style:
			stripGoogleFontsImport(n)
		}
	})

	if babelNode != nil {
		if hasAppJS {
			setAttr(babelNode, "src", "./app.js")
			delAttr(babelNode, "type")
			babelNode.FirstChild = nil
			babelNode.LastChild = nil
		} else {
			toRemove = append(toRemove, babelNode)
		}
	}

	for _, n := range toRemove {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return Result{}, err
	}
	result.HTML = buf.Bytes()
	return result, nil
}

func stripGoogleFontsImport(styleNode *html.Node) {
	if styleNode.FirstChild == nil || styleNode.FirstChild.Type != html.TextNode {
		return
	}
	lines := strings.Split(styleNode.FirstChild.Data, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, "@import") && strings.Contains(line, googleFontsHost) {
			continue
		}
		kept = append(kept, line)
	}
	styleNode.FirstChild.Data = strings.Join(kept, "\n")
}

func matchesAnyHost(src string, hosts []string) bool {
	for _, h := range hosts {
		if strings.Contains(src, h) {
			return true
		}
	}
	return false
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func delAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if !strings.EqualFold(a.Key, key) {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var walkText func(*html.Node)
	walkText = func(c *html.Node) {
		if c.Type == html.TextNode {
			buf.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walkText(child)
		}
	}
	walkText(n)
	return buf.String()
}
