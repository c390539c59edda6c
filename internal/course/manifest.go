package course

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the declarative structure of a course: an ordered list of days,
// each with its reading sections and at most one quiz.
type Manifest struct {
	Course string `yaml:"course" json:"course"`
	Title  string `yaml:"title,omitempty" json:"title,omitempty"`
	Days   []Day  `yaml:"days" json:"days"`
}

// Day is one top-level course unit.
type Day struct {
	Day      int       `yaml:"day" json:"day"`
	Title    string    `yaml:"title,omitempty" json:"title,omitempty"`
	Sections []Section `yaml:"sections,omitempty" json:"sections,omitempty"`
	Quiz     *Quiz     `yaml:"quiz,omitempty" json:"quiz,omitempty"`
}

// Section is one block of reading content.
type Section struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
	// Words overrides the word count derived from Body when non-zero.
	Words int    `yaml:"words,omitempty" json:"words,omitempty"`
	Body  string `yaml:"body,omitempty" json:"body,omitempty"`
}

// WordCount returns the explicit word count, or the count of Body's words.
func (s Section) WordCount() int {
	if s.Words > 0 {
		return s.Words
	}
	return CountWords(s.Body)
}

// Quiz is a day's multiple-choice quiz.
type Quiz struct {
	ID        string     `yaml:"id" json:"id"`
	Questions []Question `yaml:"questions" json:"questions"`
}

// Question is a single multiple-choice question.
type Question struct {
	Number      string   `yaml:"number" json:"number"`
	Text        string   `yaml:"text" json:"text"`
	Answer      string   `yaml:"answer" json:"answer"`
	Hint1       string   `yaml:"hint1,omitempty" json:"hint1,omitempty"`
	Hint2       string   `yaml:"hint2,omitempty" json:"hint2,omitempty"`
	Explanation string   `yaml:"explanation,omitempty" json:"explanation,omitempty"`
	Options     []Option `yaml:"options" json:"options"`
}

// Option is one answer choice.
type Option struct {
	Value string `yaml:"value" json:"value"`
	Text  string `yaml:"text" json:"text"`
}

// OptionText returns the display text of the option with the given value.
func (q Question) OptionText(value string) string {
	for _, o := range q.Options {
		if o.Value == value {
			return o.Text
		}
	}
	return ""
}

// Empty reports whether the manifest has no days, in which case gating is
// skipped entirely.
func (m *Manifest) Empty() bool {
	return m == nil || len(m.Days) == 0
}

// Questions returns every question in day order.
func (m *Manifest) Questions() []Question {
	var out []Question
	for _, d := range m.Days {
		if d.Quiz != nil {
			out = append(out, d.Quiz.Questions...)
		}
	}
	return out
}

// normalize sorts days by number.
func (m *Manifest) normalize() {
	sort.SliceStable(m.Days, func(i, j int) bool { return m.Days[i].Day < m.Days[j].Day })
}

// Load reads a course from path and validates it. HTML files go through the
// structure parser; .yaml/.yml and .json files are decoded as manifests.
// A page without day markers yields an empty manifest and no error.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open course: %w", err)
	}
	defer f.Close()

	name := NameFromPath(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		m, err := ParseHTML(f, name)
		if err != nil {
			return nil, err
		}
		if m.Empty() {
			return m, nil
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("course page %s: %w", filepath.Base(path), err)
		}
		return m, nil
	case ".json":
		return Decode(f, FormatJSON, name)
	default:
		return Decode(f, FormatYAML, name)
	}
}

// Manifest encodings.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Decode reads a manifest in the given format and validates it against the
// manifest schema. fallbackName is used when the document names no course.
func Decode(r io.Reader, format, fallbackName string) (*Manifest, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	// Normalize to JSON so schema validation sees the same value shapes
	// regardless of the source format.
	var doc any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse manifest: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown manifest format %q", format)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize manifest: %w", err)
	}

	if err := validateSchema(jsonDoc); err != nil {
		return nil, err
	}

	var m Manifest
	dec := json.NewDecoder(bytes.NewReader(jsonDoc))
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Course == "" {
		m.Course = fallbackName
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.normalize()
	return &m, nil
}

// Encode writes the manifest in the given format.
func Encode(w io.Writer, m *Manifest, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown manifest format %q", format)
	}
}

// NameFromPath maps a course file path to its course name: the base name
// without its extension.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".html", ".htm", ".yaml", ".yml", ".json"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return base
}

// CountWords returns the number of whitespace-separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
