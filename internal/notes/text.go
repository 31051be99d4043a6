package notes

import (
	"strings"

	"golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// PlainText flattens note HTML to text, one line per block element.
func PlainText(raw string) string {
	z := html.NewTokenizer(strings.NewReader(raw))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; keep what was read.
			return tidy(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				skip++
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		}
	}
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

var allowedTags = map[string]bool{
	"p": true, "br": true, "div": true, "span": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "blockquote": true, "pre": true, "code": true,
	"strong": true, "b": true, "em": true, "i": true, "u": true, "s": true, "strike": true,
	"a": true, "table": true, "thead": true, "tbody": true, "tr": true, "th": true, "td": true,
}

var droppedTags = map[string]bool{
	"script": true, "style": true, "iframe": true, "object": true, "embed": true, "form": true,
}

// Sanitize keeps the rich-text markup an editor produces and drops
// everything else. Unknown elements are unwrapped and every attribute except
// a safe link href is removed.
func Sanitize(raw string) string {
	z := html.NewTokenizer(strings.NewReader(raw))
	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.WriteString(html.EscapeString(string(z.Text())))
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if droppedTags[tok.Data] {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if skip > 0 || !allowedTags[tok.Data] {
				continue
			}
			b.WriteByte('<')
			b.WriteString(tok.Data)
			if tok.Data == "a" {
				for _, attr := range tok.Attr {
					if attr.Key == "href" && safeHref(attr.Val) {
						b.WriteString(` href="` + html.EscapeString(attr.Val) + `"`)
					}
				}
			}
			b.WriteByte('>')
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if droppedTags[tag] {
				if skip > 0 {
					skip--
				}
				continue
			}
			if skip > 0 || !allowedTags[tag] || tag == "br" {
				continue
			}
			b.WriteString("</" + tag + ">")
		}
	}
}

func safeHref(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "mailto:")
}
