package course

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// manifestSchema is the JSON Schema every decoded manifest must satisfy.
const manifestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["days"],
  "properties": {
    "course": {"type": "string"},
    "title": {"type": "string"},
    "days": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["day"],
        "properties": {
          "day": {"type": "integer", "minimum": 1},
          "title": {"type": "string"},
          "sections": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "title": {"type": "string"},
                "words": {"type": "integer", "minimum": 0},
                "body": {"type": "string"}
              }
            }
          },
          "quiz": {
            "type": "object",
            "required": ["id", "questions"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "questions": {
                "type": "array",
                "items": {
                  "type": "object",
                  "required": ["number", "text", "answer", "options"],
                  "properties": {
                    "number": {"type": "string", "minLength": 1},
                    "text": {"type": "string"},
                    "answer": {"type": "string"},
                    "hint1": {"type": "string"},
                    "hint2": {"type": "string"},
                    "explanation": {"type": "string"},
                    "options": {
                      "type": "array",
                      "minItems": 2,
                      "items": {
                        "type": "object",
                        "required": ["value", "text"],
                        "properties": {
                          "value": {"type": "string", "minLength": 1},
                          "text": {"type": "string"}
                        }
                      }
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(manifestSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse manifest schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://course-manifest.json"
		if err := c.AddResource(url, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(url)
	})
	return compiledSchema, compileErr
}

// validateSchema checks a JSON-encoded manifest against manifestSchema.
func validateSchema(doc []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if err := s.Validate(inst); err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	return nil
}

// ValidationError lists everything wrong with a manifest.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid course manifest: " + strings.Join(e.Problems, "; ")
}

// Validate performs the structural checks the schema cannot express:
// unique day numbers, unique section and quiz ids, unique question numbers
// and answers that name an existing option.
func (m *Manifest) Validate() error {
	var errs []string

	days := make(map[int]bool)
	ids := make(map[string]bool)
	questions := make(map[string]bool)

	for _, d := range m.Days {
		if days[d.Day] {
			errs = append(errs, fmt.Sprintf("duplicate day %d", d.Day))
		}
		days[d.Day] = true

		for _, s := range d.Sections {
			if ids[s.ID] {
				errs = append(errs, fmt.Sprintf("duplicate section id %q", s.ID))
			}
			ids[s.ID] = true
		}

		if d.Quiz == nil {
			continue
		}
		if ids[d.Quiz.ID] {
			errs = append(errs, fmt.Sprintf("quiz id %q collides with another id", d.Quiz.ID))
		}
		ids[d.Quiz.ID] = true

		for _, q := range d.Quiz.Questions {
			if questions[q.Number] {
				errs = append(errs, fmt.Sprintf("duplicate question number %q", q.Number))
			}
			questions[q.Number] = true

			if !hasOption(q, q.Answer) {
				errs = append(errs, fmt.Sprintf("question %q answer %q matches no option", q.Number, q.Answer))
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

func hasOption(q Question, value string) bool {
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}
