package ai

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"
)

var stringList = &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}

var skillList = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":     {Type: genai.TypeString},
			"hasSkill": {Type: genai.TypeBoolean},
		},
		Required: []string{"name", "hasSkill"},
	},
}

var resumeResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":       {Type: genai.TypeString},
		"email":      {Type: genai.TypeString},
		"phone":      {Type: genai.TypeString},
		"experience": stringList,
		"education":  stringList,
		"skills":     stringList,
	},
	Required: []string{"name", "email", "phone", "experience", "education", "skills"},
}

var jobDescriptionResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"requirements":  stringList,
		"skills":        stringList,
		"extractedText": {Type: genai.TypeString},
	},
	Required: []string{"requirements", "skills", "extractedText"},
}

var scoreResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"score":           {Type: genai.TypeNumber},
		"atsScore":        {Type: genai.TypeNumber},
		"breakdown":       {Type: genai.TypeString},
		"primarySkills":   skillList,
		"secondarySkills": skillList,
	},
	Required: []string{"score", "atsScore", "breakdown", "primarySkills", "secondarySkills"},
}

// JSON schemas applied to every oracle response before decoding.
// Score bounds are left to ValidateScoreRange so they surface as their own error.
const resumeJSONSchema = `{
  "type": "object",
  "required": ["name", "email", "phone", "experience", "education", "skills"],
  "properties": {
    "name": {"type": "string"},
    "email": {"type": "string"},
    "phone": {"type": "string"},
    "experience": {"type": "array", "items": {"type": "string"}},
    "education": {"type": "array", "items": {"type": "string"}},
    "skills": {"type": "array", "items": {"type": "string"}}
  }
}`

const jobDescriptionJSONSchema = `{
  "type": "object",
  "required": ["requirements", "skills", "extractedText"],
  "properties": {
    "requirements": {"type": "array", "items": {"type": "string"}},
    "skills": {"type": "array", "items": {"type": "string"}},
    "extractedText": {"type": "string", "minLength": 1}
  }
}`

const scoreJSONSchema = `{
  "type": "object",
  "required": ["score", "atsScore", "breakdown", "primarySkills", "secondarySkills"],
  "definitions": {
    "skill": {
      "type": "object",
      "required": ["name", "hasSkill"],
      "properties": {
        "name": {"type": "string"},
        "hasSkill": {"type": "boolean"}
      }
    }
  },
  "properties": {
    "score": {"type": "number"},
    "atsScore": {"type": "number"},
    "breakdown": {"type": "string"},
    "primarySkills": {"type": "array", "items": {"$ref": "#/definitions/skill"}},
    "secondarySkills": {"type": "array", "items": {"$ref": "#/definitions/skill"}}
  }
}`

var (
	resumeSchemaLoader         = gojsonschema.NewStringLoader(resumeJSONSchema)
	jobDescriptionSchemaLoader = gojsonschema.NewStringLoader(jobDescriptionJSONSchema)
	scoreSchemaLoader          = gojsonschema.NewStringLoader(scoreJSONSchema)
)

// validateResponse checks a raw JSON document against a schema and reports
// every violation in a single error.
func validateResponse(schema gojsonschema.JSONLoader, document string) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewStringLoader(document))
	if err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("response does not match schema: %s", strings.Join(problems, "; "))
}

// cleanJSON strips a markdown code fence the model sometimes wraps around JSON
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if newline := strings.IndexByte(text, '\n'); newline >= 0 {
		text = text[newline+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
