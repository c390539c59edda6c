package course

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Id conventions used by the course pages.
var (
	quizIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^quiz[_-]?(\d+)$`),         // quiz1, quiz-1
		regexp.MustCompile(`^quiz[_-]day[_-]?(\d+)$`),  // quiz-day1
		regexp.MustCompile(`^day[_-]?(\d+)[_-]quiz$`), // day1-quiz
	}
	contentIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^d(\d+)[_-]`),   // d1-intro
		regexp.MustCompile(`^day(\d+)[_-]`), // day1-what-is-ai
	}
	dayHeaderPattern = regexp.MustCompile(`^day(\d+)$`)
)

// Subtrees that never count as reading content.
var nonContentClasses = []string{
	"quiz-container",
	"quiz-question",
	"rg-section-progress",
	"rg-quiz-lock-overlay",
}

// ParseHTML scans a rendered course page for day, section and quiz markers
// and builds the equivalent manifest. A page without day markers yields an
// empty manifest and no error: gating is an enhancement, and a page that does
// not carry the markers simply runs ungated.
func ParseHTML(r io.Reader, name string) (*Manifest, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse course html: %w", err)
	}

	m := &Manifest{Course: name}
	days := make(map[int]*Day)
	dayOf := func(n int) *Day {
		d, ok := days[n]
		if !ok {
			d = &Day{Day: n}
			days[n] = d
		}
		return d
	}

	var headers []*html.Node

	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if n.DataAtom == atom.Title && m.Title == "" {
			m.Title = collapse(textOf(n))
		}
		if hasClass(n, "day-header") {
			headers = append(headers, n)
		}
		if !hasClass(n, "section") && !hasClass(n, "fade-in") {
			return true
		}
		id := attr(n, "id")
		if id == "" {
			return true
		}

		dayNum, isQuiz := matchQuizID(id)
		if isExcluded(id) {
			return true
		}
		if !isQuiz {
			var ok bool
			if dayNum, ok = matchContentID(id); !ok {
				return true
			}
		}

		d := dayOf(dayNum)
		if isQuiz {
			d.Quiz = parseQuiz(n, id)
			return true
		}
		d.Sections = append(d.Sections, Section{
			ID:    id,
			Title: sectionTitle(n),
			Words: countContentWords(n),
			Body:  contentText(n),
		})
		return true
	})

	for _, h := range headers {
		match := dayHeaderPattern.FindStringSubmatch(attr(h, "id"))
		if match == nil {
			continue
		}
		num, _ := strconv.Atoi(match[1])
		if d, ok := days[num]; ok {
			d.Title = collapse(textOf(h))
		}
	}

	nums := make([]int, 0, len(days))
	for n := range days {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	for _, n := range nums {
		m.Days = append(m.Days, *days[n])
	}
	return m, nil
}

func matchQuizID(id string) (int, bool) {
	for _, p := range quizIDPatterns {
		if match := p.FindStringSubmatch(id); match != nil {
			n, err := strconv.Atoi(match[1])
			if err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func matchContentID(id string) (int, bool) {
	for _, p := range contentIDPatterns {
		if match := p.FindStringSubmatch(id); match != nil {
			n, err := strconv.Atoi(match[1])
			if err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// isExcluded reports ids of final-assessment and takeaway sections.
func isExcluded(id string) bool {
	return strings.HasPrefix(id, "final-") || id == "takeaways"
}

func parseQuiz(n *html.Node, id string) *Quiz {
	q := &Quiz{ID: id}
	walk(n, func(c *html.Node) bool {
		if c.Type != html.ElementNode || !hasClass(c, "quiz-question") {
			return true
		}
		number := attr(c, "data-question")
		if number == "" {
			return false
		}
		question := Question{
			Number: number,
			Answer: attr(c, "data-answer"),
			Hint1:  attr(c, "data-hint1"),
			Hint2:  attr(c, "data-hint2"),
		}
		walk(c, func(e *html.Node) bool {
			if e.Type != html.ElementNode || e == c {
				return true
			}
			switch {
			case hasClass(e, "quiz-q-text"):
				question.Text = collapse(textOf(e))
				return false
			case hasClass(e, "quiz-option"):
				question.Options = append(question.Options, Option{
					Value: attr(e, "data-value"),
					Text:  collapse(textOf(e)),
				})
				return false
			case hasClass(e, "quiz-explanation"):
				question.Explanation = collapse(textOf(e))
				return false
			}
			return true
		})
		q.Questions = append(q.Questions, question)
		return false
	})
	return q
}

func sectionTitle(n *html.Node) string {
	var title string
	walk(n, func(c *html.Node) bool {
		if title != "" {
			return false
		}
		if c.Type != html.ElementNode || c == n {
			return true
		}
		switch c.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4:
			title = collapse(textOf(c))
			return false
		}
		return true
	})
	return title
}

// countContentWords counts the words of n, ignoring quiz widgets, buttons and
// injected progress UI.
func countContentWords(n *html.Node) int {
	return CountWords(contentText(n))
}

// contentText returns the readable text of n with one line per block element.
func contentText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
			return
		case html.ElementNode:
			if skipContent(c) {
				return
			}
		}
		block := c.Type == html.ElementNode && isBlock(c.DataAtom)
		if block {
			b.WriteByte('\n')
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			visit(ch)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	visit(n)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = collapse(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func skipContent(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Button, atom.Script, atom.Style:
		return true
	}
	for _, c := range nonContentClasses {
		if hasClass(n, c) {
			return true
		}
	}
	return false
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Li, atom.Ul, atom.Ol,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Pre, atom.Blockquote, atom.Table, atom.Tr, atom.Br, atom.Header, atom.Footer:
		return true
	}
	return false
}

// walk visits n and its descendants in document order. Returning false from
// fn skips the node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
