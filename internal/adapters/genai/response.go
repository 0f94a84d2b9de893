package genai

import (
	"errors"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type candidate struct {
	Content content `json:"content"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

// responseSchema requires candidates[0].content.parts[0].text to be a
// string. Tuple-form items only constrain the first element.
const responseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["candidates"],
  "properties": {
    "candidates": {
      "type": "array",
      "minItems": 1,
      "items": [{
        "type": "object",
        "required": ["content"],
        "properties": {
          "content": {
            "type": "object",
            "required": ["parts"],
            "properties": {
              "parts": {
                "type": "array",
                "minItems": 1,
                "items": [{
                  "type": "object",
                  "required": ["text"],
                  "properties": {"text": {"type": "string"}}
                }]
              }
            }
          }
        }
      }]
    }
  }
}`

var compiledSchema = mustCompileSchema(responseSchema)

func mustCompileSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic("genai: invalid response schema: " + err.Error())
	}
	return schema
}

// checkShape validates a JSON document against responseSchema and returns
// the violations as one error.
func checkShape(raw []byte) error {
	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return errors.New(strings.Join(msgs, "; "))
}
