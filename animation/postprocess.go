package animation

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// extractCode returns the body of the first JavaScript fenced block in raw,
// or of the first fenced block of any language. Answers without fences are
// returned trimmed.
func extractCode(raw string) string {
	src := []byte(raw)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var first, js string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		body := blockText(block, src)
		if first == "" {
			first = body
		}
		switch strings.ToLower(string(block.Language(src))) {
		case "javascript", "js":
			js = body
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil
	})

	switch {
	case js != "":
		return js
	case first != "":
		return first
	default:
		return strings.TrimSpace(raw)
	}
}

func blockText(block *ast.FencedCodeBlock, src []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimSpace(buf.String())
}
