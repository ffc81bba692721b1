// Package jsonl validates JSON Lines chat datasets before they are handed to
// the fine-tuning provider. Each line is one training example with a
// "messages" list in the chat-completions shape.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FormatError reports the per-category counts of problems found in a dataset.
// The message lists categories the way they are surfaced to API clients,
// for example "(missing_content: 2), (unrecognized_role: 1)".
type FormatError struct {
	Counts map[string]int
}

func (e *FormatError) Error() string {
	keys := make([]string, 0, len(e.Counts))
	for k := range e.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("(%s: %d)", k, e.Counts[k]))
	}
	return strings.Join(parts, ", ")
}

var allowedMessageKeys = map[string]struct{}{
	"role": {}, "content": {}, "name": {}, "function_call": {}, "weight": {},
}

var allowedRoles = map[string]struct{}{
	"system": {}, "user": {}, "assistant": {}, "function": {},
}

// Validate parses raw JSONL training data and checks every example for the
// chat fine-tuning shape. A parse failure on any line returns a plain error;
// structural problems return a *FormatError with category counts.
func Validate(raw []byte) error {
	var dataset []map[string]json.RawMessage

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var ex map[string]json.RawMessage
		if err := json.Unmarshal(line, &ex); err != nil {
			return fmt.Errorf("incorrect training file data")
		}
		dataset = append(dataset, ex)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("incorrect training file data")
	}
	if len(dataset) == 0 {
		return fmt.Errorf("incorrect training file data")
	}

	counts := map[string]int{}
	for _, ex := range dataset {
		rawMessages, ok := ex["messages"]
		if !ok {
			counts["missing_messages_list"]++
			continue
		}
		var messages []map[string]json.RawMessage
		if err := json.Unmarshal(rawMessages, &messages); err != nil || len(messages) == 0 {
			counts["missing_messages_list"]++
			continue
		}

		hasAssistant := false
		for _, msg := range messages {
			if _, ok := msg["role"]; !ok {
				counts["message_missing_key"]++
			} else if _, ok := msg["content"]; !ok {
				counts["message_missing_key"]++
			}

			for k := range msg {
				if _, ok := allowedMessageKeys[k]; !ok {
					counts["message_unrecognized_key"]++
					break
				}
			}

			role := stringField(msg, "role")
			if _, ok := allowedRoles[role]; !ok {
				counts["unrecognized_role"]++
			}
			if role == "assistant" {
				hasAssistant = true
			}

			content, contentIsString := stringValue(msg, "content")
			_, hasFunctionCall := msg["function_call"]
			if (content == "" && !hasFunctionCall) || !contentIsString {
				counts["missing_content"]++
			}
		}
		if !hasAssistant {
			counts["example_missing_assistant_message"]++
		}
	}

	if len(counts) > 0 {
		return &FormatError{Counts: counts}
	}
	return nil
}

func stringField(msg map[string]json.RawMessage, key string) string {
	s, _ := stringValue(msg, key)
	return s
}

func stringValue(msg map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := msg[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
