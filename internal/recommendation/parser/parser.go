// Package parser turns raw model text into a schema-checked ModelOutput.
// Nothing is recovered from output that fails any step.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"zomato-recommender/internal/common/errors"
	"zomato-recommender/internal/models"
)

const outputSchema = `{
  "type": "object",
  "required": ["summary", "recommendations"],
  "properties": {
    "summary": {"type": "string"},
    "recommendations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "reason"],
        "properties": {
          "id": {"type": "integer"},
          "reason": {"type": "string"}
        }
      }
    }
  }
}`

var (
	schema     *gojsonschema.Schema
	schemaErr  error
	schemaOnce sync.Once
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(outputSchema))
	})
	return schema, schemaErr
}

type rawPick struct {
	ID     json.Number `json:"id"`
	Reason string      `json:"reason"`
}

type rawOutput struct {
	Summary         string    `json:"summary"`
	Recommendations []rawPick `json:"recommendations"`
}

// Parse extracts the span from the first '{' to the last '}' of raw, checks
// it is JSON and validates it against the response schema.
func Parse(raw string) (*models.ModelOutput, error) {
	body, err := ExtractObject(raw)
	if err != nil {
		return nil, err
	}

	if !json.Valid([]byte(body)) {
		return nil, errors.NewLLMParseError("extracted text is not valid JSON")
	}

	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile response schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, errors.NewLLMParseError(err.Error())
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return nil, errors.NewLLMValidationError(strings.Join(msgs, "; "))
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var out rawOutput
	if err := dec.Decode(&out); err != nil {
		return nil, errors.NewLLMValidationError(err.Error())
	}

	picks := make([]models.ModelPick, 0, len(out.Recommendations))
	for _, p := range out.Recommendations {
		id, err := integerID(p.ID)
		if err != nil {
			return nil, errors.NewLLMValidationError(err.Error())
		}
		picks = append(picks, models.ModelPick{ID: id, Reason: p.Reason})
	}

	return &models.ModelOutput{Summary: out.Summary, Recommendations: picks}, nil
}

// ExtractObject returns raw[first '{' : last '}'+1].
func ExtractObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return "", errors.NewLLMParseError(fmt.Sprintf("no JSON object in %d bytes of output", len(raw)))
	}
	return raw[start : end+1], nil
}

// integerID accepts integral numbers written with a fraction, e.g. 3.0.
func integerID(n json.Number) (int64, error) {
	if id, err := n.Int64(); err == nil {
		return id, nil
	}
	f, err := n.Float64()
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("id %q is not an integer", n.String())
	}
	return int64(f), nil
}
