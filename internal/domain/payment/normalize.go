package payment

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var noise = strings.NewReplacer(
	"\u00a0", " ",
	"\u200b", "",
	"\r\n", "\n",
	"&nbsp;", " ",
)

// nonContent elements are dropped together with everything under them.
var nonContent = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Meta:     true,
	atom.Link:     true,
	atom.Head:     true,
	atom.Title:    true,
	atom.Noscript: true,
}

// blocks end the current line before and after their content.
var blocks = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Body: true, atom.Caption: true, atom.Dd: true, atom.Div: true, atom.Dl: true,
	atom.Dt: true, atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true,
	atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true,
	atom.Html: true, atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true,
	atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true, atom.Tbody: true,
	atom.Td: true, atom.Tfoot: true, atom.Th: true, atom.Thead: true, atom.Tr: true,
	atom.Ul: true,
}

// Normalize turns a raw notification body (HTML or plain text) into trimmed,
// non-empty lines joined by "\n".
func Normalize(raw string) string {
	cleaned := noise.Replace(raw)

	doc, err := html.Parse(strings.NewReader(cleaned))
	if err != nil {
		return joinLines(cleaned)
	}

	prune(doc)

	var b strings.Builder
	writeText(&b, doc)
	// Entities such as &#160; decode back into the characters cleaned above.
	return joinLines(noise.Replace(b.String()))
}

func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && removable(c) {
			n.RemoveChild(c)
		} else {
			prune(c)
		}
		c = next
	}
}

func removable(n *html.Node) bool {
	if nonContent[n.DataAtom] {
		return true
	}
	// <br> carries no text but still separates lines.
	if n.DataAtom == atom.Br {
		return false
	}
	return strings.TrimSpace(textContent(n)) == ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.CommentNode {
			continue
		}
		b.WriteString(textContent(c))
	}
	return b.String()
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}

	if n.Type == html.ElementNode {
		if n.DataAtom == atom.Br {
			b.WriteByte('\n')
			return
		}
		if blocks[n.DataAtom] {
			b.WriteByte('\n')
			defer b.WriteByte('\n')
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

func joinLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
