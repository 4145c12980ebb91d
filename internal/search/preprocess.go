package search

import (
	"bufio"
	"bytes"
	"strings"
)

// Prepare normalises playbook Markdown before indexing: table rows become
// standalone facts, separator rows are dropped, list items and plain lines
// become one paragraph each, and headings are kept on their own line. The
// result always ends with exactly one newline.
func Prepare(src []byte) []byte {
	var b strings.Builder
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	emit := func(s string) {
		if s = strings.TrimSpace(s); s == "" {
			return
		}
		b.WriteString(s)
		b.WriteString("\n\n")
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|"):
			if cells := tableCells(line); len(cells) > 0 {
				emit(strings.Join(cells, " "))
			}
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			emit(line[2:])
		default:
			emit(line)
		}
	}
	return []byte(strings.TrimRight(b.String(), "\n") + "\n")
}

// tableCells returns the non-empty cells of a row, or nil for a separator row.
func tableCells(line string) []string {
	var cells []string
	sep := true
	for _, c := range strings.Split(strings.Trim(line, "|"), "|") {
		cell := strings.TrimSpace(c)
		if strings.Trim(cell, ":- ") != "" {
			sep = false
		}
		if cell != "" {
			cells = append(cells, cell)
		}
	}
	if sep {
		return nil
	}
	return cells
}

// Sections splits prepared Markdown into heading-scoped paragraph groups.
// Text before the first heading lands in a section with an empty title.
func Sections(prepared []byte) []Section {
	var out []Section
	cur := Section{}
	flush := func() {
		if cur.Title != "" || len(cur.Paragraphs) > 0 {
			out = append(out, cur)
		}
	}
	for _, para := range strings.Split(string(prepared), "\n\n") {
		p := strings.TrimSpace(para)
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "#") {
			flush()
			cur = Section{Title: strings.TrimSpace(strings.TrimLeft(p, "#"))}
			continue
		}
		cur.Paragraphs = append(cur.Paragraphs, p)
	}
	flush()
	return out
}
