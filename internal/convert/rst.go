package convert

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Section adornment characters by heading level, following the common
// Python documentation convention.
var headingAdornments = []string{"=", "-", "~", "^", "\"", "'"}

// ToRST converts a Markdown document to reStructuredText.
//
// The conversion covers the constructs that show up in generated README
// documents: headings, paragraphs, emphasis, inline code, links, code
// blocks, lists, block quotes and thematic breaks. Raw HTML is passed
// through untouched.
func ToRST(source []byte) ([]byte, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	r := &rstRenderer{source: source}

	blocks, err := r.blocks(doc)
	if err != nil {
		return nil, fmt.Errorf("convert to reStructuredText: %w", err)
	}

	out := strings.Join(blocks, "\n\n")
	if out != "" {
		out += "\n"
	}
	return []byte(out), nil
}

type rstRenderer struct {
	source []byte
}

func (r *rstRenderer) blocks(parent ast.Node) ([]string, error) {
	var out []string
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		block, err := r.block(n)
		if err != nil {
			return nil, err
		}
		if block != "" {
			out = append(out, block)
		}
	}
	return out, nil
}

func (r *rstRenderer) block(n ast.Node) (string, error) {
	switch node := n.(type) {
	case *ast.Heading:
		title := strings.ReplaceAll(r.inlineChildren(node), "\n", " ")
		level := node.Level
		if level > len(headingAdornments) {
			level = len(headingAdornments)
		}
		width := utf8.RuneCountInString(title)
		if width < 1 {
			width = 1
		}
		return title + "\n" + strings.Repeat(headingAdornments[level-1], width), nil

	case *ast.Paragraph, *ast.TextBlock:
		return r.inlineChildren(n), nil

	case *ast.Blockquote:
		inner, err := r.blocks(node)
		if err != nil {
			return "", err
		}
		return indent(strings.Join(inner, "\n\n"), "   "), nil

	case *ast.FencedCodeBlock:
		body := indent(r.rawLines(node), "   ")
		if lang := string(node.Language(r.source)); lang != "" {
			return ".. code:: " + lang + "\n\n" + body, nil
		}
		return "::\n\n" + body, nil

	case *ast.CodeBlock:
		return "::\n\n" + indent(r.rawLines(node), "   "), nil

	case *ast.List:
		return r.list(node)

	case *ast.ThematicBreak:
		return "----", nil

	case *ast.HTMLBlock:
		raw := r.rawLines(node)
		if node.HasClosure() {
			raw += "\n" + strings.TrimRight(string(node.ClosureLine.Value(r.source)), "\n")
		}
		return raw, nil

	default:
		return r.inlineChildren(n), nil
	}
}

func (r *rstRenderer) list(node *ast.List) (string, error) {
	num := node.Start
	if num == 0 {
		num = 1
	}

	var items []string
	for it := node.FirstChild(); it != nil; it = it.NextSibling() {
		marker := "- "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}

		inner, err := r.blocks(it)
		if err != nil {
			return "", err
		}
		items = append(items, prefixItem(strings.Join(inner, "\n\n"), marker))
	}
	return strings.Join(items, "\n"), nil
}

// inlineChildren renders the inline children of a block node.
func (r *rstRenderer) inlineChildren(n ast.Node) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		sb.WriteString(r.inline(c))
	}
	return sb.String()
}

func (r *rstRenderer) inline(n ast.Node) string {
	switch node := n.(type) {
	case *ast.Text:
		s := string(node.Segment.Value(r.source))
		if node.SoftLineBreak() || node.HardLineBreak() {
			s += "\n"
		}
		return s

	case *ast.String:
		return string(node.Value)

	case *ast.CodeSpan:
		return "``" + r.inlineChildren(node) + "``"

	case *ast.Emphasis:
		if node.Level >= 2 {
			return "**" + r.inlineChildren(node) + "**"
		}
		return "*" + r.inlineChildren(node) + "*"

	case *ast.Link:
		label := r.inlineChildren(node)
		dest := string(node.Destination)
		if label == "" {
			return dest
		}
		return "`" + label + " <" + dest + ">`_"

	case *ast.AutoLink:
		return string(node.URL(r.source))

	case *ast.Image:
		alt := r.inlineChildren(node)
		dest := string(node.Destination)
		if alt == "" {
			return dest
		}
		return "`" + alt + " <" + dest + ">`_"

	case *ast.RawHTML:
		var sb strings.Builder
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			sb.Write(seg.Value(r.source))
		}
		return sb.String()

	default:
		return r.inlineChildren(n)
	}
}

// rawLines joins a block node's source line segments verbatim.
func (r *rstRenderer) rawLines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(r.source))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// indent prefixes every non-empty line with prefix.
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// prefixItem puts the list marker on the first line and aligns
// continuation lines under the item body.
func prefixItem(s, marker string) string {
	pad := strings.Repeat(" ", len(marker))
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i == 0 {
			lines[i] = marker + line
			continue
		}
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}
