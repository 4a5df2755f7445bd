package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindQuotedLines marks a block of lines quoted with a single '>'. The lines
// keep their marker and are parsed inline, so emphasis and post links work
// inside a quote.
var KindQuotedLines = ast.NewNodeKind("QuotedLines")

type QuotedLines struct {
	ast.BaseBlock
}

func (n *QuotedLines) Kind() ast.NodeKind { return KindQuotedLines }

func (n *QuotedLines) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// quoteMarker reports whether line quotes text. ">>" is a post link and never
// opens or extends a quote.
func quoteMarker(line []byte) bool {
	switch {
	case len(line) == 0 || line[0] != '>':
		return false
	case len(line) > 1 && line[1] == '>':
		return false
	}
	return true
}

type quotedLinesParser struct{}

func newQuotedLinesParser() parser.BlockParser { return quotedLinesParser{} }

func (quotedLinesParser) Trigger() []byte { return []byte{'>'} }

func (p quotedLinesParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	node := &QuotedLines{}
	if !p.take(reader, node) {
		return nil, parser.NoChildren
	}
	return node, parser.NoChildren
}

func (p quotedLinesParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	if !p.take(reader, node) {
		return parser.Close
	}
	return parser.Continue | parser.NoChildren
}

// take consumes the current line into node when it is a quote line.
func (quotedLinesParser) take(reader text.Reader, node ast.Node) bool {
	line, segment := reader.PeekLine()
	if util.IsBlank(line) || !quoteMarker(line) {
		return false
	}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return true
}

// Close drops the trailing newline so the last line renders without a break.
func (quotedLinesParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {
	lines := node.Lines()
	if n := lines.Len(); n > 0 {
		last := lines.At(n - 1)
		lines.Set(n-1, last.TrimRightSpace(reader.Source()))
	}
}

func (quotedLinesParser) CanInterruptParagraph() bool { return true }

func (quotedLinesParser) CanAcceptIndentedLine() bool { return false }

// quoteRenderer wraps quoted lines in a span; the children go through the
// regular inline renderers and are escaped there.
type quoteRenderer struct{}

func newQuoteRenderer() renderer.NodeRenderer { return quoteRenderer{} }

func (r quoteRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindQuotedLines, r.render)
}

func (quoteRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(`<span class="quote">`)
	} else {
		_, _ = w.WriteString("</span>\n")
	}
	return ast.WalkContinue, nil
}
