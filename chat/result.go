package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rahil-15/MediBot2.0/vectorstore"
)

// Result is the structured output of a chain invocation. Different chain
// shapes fill different answer fields; see answerExtractors.
type Result struct {
	Input      string              `json:"input"`
	Context    []vectorstore.Match `json:"context,omitempty"`
	Answer     string              `json:"answer,omitempty"`
	OutputText string              `json:"output_text,omitempty"`
	Result     string              `json:"result,omitempty"`
	Output     string              `json:"output,omitempty"`
}

// plainResult has Result's fields but none of its methods, so formatting it
// with %+v does not call String.
type plainResult Result

// String renders the whole result deterministically.
func (r Result) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%+v", plainResult(r))
	}
	return string(data)
}

type extractor struct {
	name string
	get  func(Result) string
}

// answerExtractors are tried in order; the first non-empty field wins.
var answerExtractors = []extractor{
	{name: "answer", get: func(r Result) string { return r.Answer }},
	{name: "output_text", get: func(r Result) string { return r.OutputText }},
	{name: "result", get: func(r Result) string { return r.Result }},
	{name: "output", get: func(r Result) string { return r.Output }},
}

// ExtractAnswer returns the reply text for res and the name of the field it
// came from. When no known field is set it returns res.String() and an empty
// field name.
func ExtractAnswer(res Result) (string, string) {
	for _, ex := range answerExtractors {
		if value := strings.TrimSpace(ex.get(res)); value != "" {
			return value, ex.name
		}
	}
	return res.String(), ""
}
