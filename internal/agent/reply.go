package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidReply marks a model reply that does not match the reply schema.
var ErrInvalidReply = errors.New("invalid agent reply")

const replySchema = `{
	"type": "object",
	"required": ["response", "isSell"],
	"properties": {
		"response": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "string"}
		},
		"isSell": {"type": "boolean"}
	}
}`

const formatInstructions = `Your responses MUST be a single JSON object and no other text, with this structure:
{"response": ["line", "..."], "isSell": false}
"response" is the list of dialogue lines in order. Lines spoken by the player start with "- ".
"isSell" is true only when the player clearly wants to buy what you sell.`

// Reply is the structured answer the model must produce.
type Reply struct {
	Response []string `json:"response"`
	IsSell   bool     `json:"isSell"`
}

var compiledReplySchema = mustCompileSchema(replySchema)

func mustCompileSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("agent: bad reply schema: %v", err))
	}
	return schema
}

// ParseReply validates raw model output against the reply schema and
// decodes it. Markdown code fences around the JSON are tolerated.
func ParseReply(raw string) (*Reply, error) {
	body := stripCodeFence(raw)

	result, err := compiledReplySchema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidReply, strings.Join(msgs, "; "))
	}

	var r Reply
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}
	return &r, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
