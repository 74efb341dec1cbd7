package provider

import (
	"bytes"
	"encoding/json"
	"strings"
)

// contentBlock is one element of a message content array.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type contentHolder struct {
	Content []contentBlock `json:"content"`
}

// envelope covers both result shapes emitted by the Claude CLI: a flat
// {"result": "..."} object and content blocks nested under "message",
// "result" or the top level.
type envelope struct {
	Result  json.RawMessage `json:"result"`
	IsError bool            `json:"is_error"`
	Subtype string          `json:"subtype"`
	Message *contentHolder  `json:"message"`
	Content []contentBlock  `json:"content"`
}

// parseAttempt inspects one JSON document. ok is false when the document
// does not have the shape the attempt understands.
type parseAttempt func(env envelope) (text string, ok bool)

var parseAttempts = []parseAttempt{
	parseFlatResult,
	parseContentBlocks,
}

// ParseOutput extracts the response text from CLI stdout. It tries, in
// order: a single JSON document, the last newline-delimited JSON object
// that yields text, and finally the raw trimmed output.
func ParseOutput(providerID, stdout string) (string, error) {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return "", outputError(providerID, "provider produced no output")
	}

	if text, ok, err := parseDocument(providerID, []byte(trimmed)); ok || err != nil {
		return text, err
	}

	lines := strings.Split(trimmed, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		if text, ok, err := parseDocument(providerID, []byte(line)); ok || err != nil {
			return text, err
		}
	}

	return trimmed, nil
}

// ParseRawOutput returns trimmed stdout, failing only when it is empty.
func ParseRawOutput(providerID, stdout string) (string, error) {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return "", outputError(providerID, "provider produced no output")
	}
	return trimmed, nil
}

func parseDocument(providerID string, data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return "", false, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", false, nil
	}
	text, ok := envelopeText(env)
	if env.IsError {
		detail := strings.TrimSpace(text)
		if detail == "" {
			detail = env.Subtype
		}
		if detail == "" {
			detail = "no details"
		}
		return "", true, outputError(providerID, "provider reported an error: "+truncate(detail, 500))
	}
	if !ok {
		return "", false, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", true, outputError(providerID, "provider returned an empty result")
	}
	return text, true, nil
}

// envelopeText returns the text of the first attempt that understands env.
func envelopeText(env envelope) (string, bool) {
	for _, attempt := range parseAttempts {
		if text, ok := attempt(env); ok {
			return text, true
		}
	}
	return "", false
}

func parseFlatResult(env envelope) (string, bool) {
	if len(env.Result) == 0 || env.Result[0] != '"' {
		return "", false
	}
	var result string
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return "", false
	}
	return result, true
}

func parseContentBlocks(env envelope) (string, bool) {
	if env.Message != nil {
		if text, ok := joinText(env.Message.Content); ok {
			return text, true
		}
	}
	if len(env.Result) > 0 && env.Result[0] == '{' {
		var holder contentHolder
		if err := json.Unmarshal(env.Result, &holder); err == nil {
			if text, ok := joinText(holder.Content); ok {
				return text, true
			}
		}
	}
	if text, ok := joinText(env.Content); ok {
		return text, true
	}
	return "", false
}

func joinText(blocks []contentBlock) (string, bool) {
	var b strings.Builder
	found := false
	for _, blk := range blocks {
		if blk.Type != "text" {
			continue
		}
		found = true
		b.WriteString(blk.Text)
	}
	return b.String(), found
}
