package vision

import (
	"encoding/json"
	"regexp"
)

var (
	fencedJSONRe = regexp.MustCompile("```json\\s*([\\s\\S]+?)```")
	bareObjectRe = regexp.MustCompile(`\{[\s\S]+\}`)
)

// Parse extracts the JSON payload from a model response. It prefers a
// fenced json block, falls back to the first bare object, and degrades
// to an empty extraction when neither parses. Parsing never fails the
// caller; a malformed response just yields no items.
func Parse(content string) *Extraction {
	var raw string
	if m := fencedJSONRe.FindStringSubmatch(content); m != nil {
		raw = m[1]
	} else if m := bareObjectRe.FindString(content); m != "" {
		raw = m
	} else {
		return Empty("no JSON object in model response")
	}

	var extraction Extraction
	if err := json.Unmarshal([]byte(raw), &extraction); err != nil {
		return Empty("malformed JSON in model response: " + err.Error())
	}
	return &extraction
}
