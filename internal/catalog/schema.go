package catalog

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title", "sections"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "target": {"type": "string"},
    "sections": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    }
  }
}`

const sectionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "title", "lessons"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "lessons": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "explanation"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string", "minLength": 1},
          "explanation": {"type": "string"},
          "language": {"type": "string"},
          "code": {"type": "string"},
          "output": {"type": "string"},
          "tips": {"type": "array", "items": {"type": "string"}},
          "warnings": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

const quizSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["questions"],
  "properties": {
    "section_id": {"type": "string"},
    "title": {"type": "string"},
    "pass_percent": {"type": "integer", "minimum": 0, "maximum": 100},
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "prompt", "kind", "options", "answer"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "prompt": {"type": "string", "minLength": 1},
          "kind": {"type": "string", "enum": ["single", "multi", "true-false", "tf"]},
          "options": {
            "type": "array",
            "minItems": 2,
            "items": {
              "type": "object",
              "required": ["id", "text"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "text": {"type": "string"}
              }
            }
          },
          "answer": {"type": "array", "minItems": 1, "items": {"type": "string"}},
          "explanation": {"type": "string"},
          "code": {"type": "string"}
        }
      }
    }
  }
}`

var (
	manifestLoader = gojsonschema.NewStringLoader(manifestSchema)
	sectionLoader  = gojsonschema.NewStringLoader(sectionSchema)
	quizLoader     = gojsonschema.NewStringLoader(quizSchema)
)

// validateDocument checks a decoded YAML document against a JSON schema.
func validateDocument(name string, schema gojsonschema.JSONLoader, doc interface{}) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("%s: %s", name, strings.Join(problems, "; "))
}
