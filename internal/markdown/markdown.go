// Package markdown renders post content to sanitized HTML.
package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// goldmark escapes '>' so post links are matched in their escaped form
var postLinkRegex = regexp.MustCompile(`&gt;&gt;(\d+)`)

type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *Renderer {
	p := parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(parser.NewFencedCodeBlockParser(), 700),
			util.Prioritized(newQuotedLinesParser(), 800),
			util.Prioritized(parser.NewParagraphParser(), 1000),
		),
		parser.WithInlineParsers(
			util.Prioritized(parser.NewCodeSpanParser(), 100),
			util.Prioritized(parser.NewEmphasisParser(), 500),
		),
	)

	md := goldmark.New(
		goldmark.WithParser(p),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			renderer.WithNodeRenderers(util.Prioritized(newQuoteRenderer(), 500)),
		),
		goldmark.WithExtensions(extension.Strikethrough),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^(post-link|quote)$`)).OnElements("a", "span")
	policy.AllowAttrs("data-post-id").Matching(regexp.MustCompile(`^\d+$`)).OnElements("a")
	policy.RequireNoFollowOnLinks(false)
	policy.AllowRelativeURLs(true)

	return &Renderer{md: md, policy: policy}
}

// Render converts post content to HTML that is safe to embed in a page.
// On a conversion failure the content is returned escaped.
func (r *Renderer) Render(content string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return r.policy.Sanitize(content)
	}
	linked := postLinkRegex.ReplaceAllString(strings.TrimSpace(buf.String()),
		`<a class="post-link" data-post-id="$1" href="#post-$1">&gt;&gt;$1</a>`)
	return r.policy.Sanitize(linked)
}
