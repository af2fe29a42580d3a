package result

import (
	"strings"

	"github.com/tidwall/gjson"
)

// The scoring service is proxied through several vendor SDKs, each wrapping
// the generated text in its own envelope. Extraction is a closed set of
// shapes tried in fixed priority order; each extractor is pure and reports
// text-or-absent so individual shapes stay testable in isolation.
var envelopeExtractors = []func(gjson.Result) (string, bool){
	extractFlatText,
	extractContentArray,
	extractContentParts,
	extractCandidates,
	extractOutputText,
}

// ExtractContentText pulls the generated text blob out of a raw payload.
// Returns false when no known envelope shape yields non-empty text.
func ExtractContentText(raw gjson.Result) (string, bool) {
	if raw.Type == gjson.String {
		if strings.TrimSpace(raw.String()) == "" {
			return "", false
		}
		return raw.String(), true
	}
	if !raw.IsObject() {
		return "", false
	}
	for _, extract := range envelopeExtractors {
		if text, ok := extract(raw); ok {
			return text, true
		}
	}
	return "", false
}

// extractFlatText handles `{"text": "..."}`.
func extractFlatText(raw gjson.Result) (string, bool) {
	text := raw.Get("text")
	if text.Type == gjson.String && strings.TrimSpace(text.String()) != "" {
		return text.String(), true
	}
	return "", false
}

// extractContentArray handles `{"content": [{"text": ...}, ...]}` where each
// part carries either a string or an array of string fragments, and a nested
// `content` array one level down.
func extractContentArray(raw gjson.Result) (string, bool) {
	content := raw.Get("content")
	if !content.IsArray() {
		return "", false
	}
	if joined, ok := joinTextEntries(content.Array()); ok {
		return joined, true
	}
	for _, item := range content.Array() {
		nested := item.Get("content")
		if nested.IsArray() {
			if joined, ok := joinTextEntries(nested.Array()); ok {
				return joined, true
			}
		}
	}
	return "", false
}

// extractContentParts handles `{"content": {"parts": [...]}}`.
func extractContentParts(raw gjson.Result) (string, bool) {
	content := raw.Get("content")
	if !content.IsObject() {
		return "", false
	}
	parts := content.Get("parts")
	if !parts.IsArray() {
		return "", false
	}
	return joinTextEntries(parts.Array())
}

// extractCandidates handles the `{"candidates": [{"content": ...}]}` family,
// where content may be a bare string, carry `parts`, or carry another
// `content` array.
func extractCandidates(raw gjson.Result) (string, bool) {
	candidates := raw.Get("candidates")
	if !candidates.IsArray() {
		return "", false
	}
	for _, candidate := range candidates.Array() {
		content := candidate.Get("content")
		if content.Type == gjson.String && strings.TrimSpace(content.String()) != "" {
			return content.String(), true
		}
		if !content.IsObject() {
			continue
		}
		if parts := content.Get("parts"); parts.IsArray() {
			if joined, ok := joinTextEntries(parts.Array()); ok {
				return joined, true
			}
		}
		if inner := content.Get("content"); inner.IsArray() {
			if joined, ok := joinTextEntries(inner.Array()); ok {
				return joined, true
			}
		}
	}
	return "", false
}

// extractOutputText handles `{"output_text": "..."}` and the fragment-array
// variant `{"output_text": ["...", "..."]}`.
func extractOutputText(raw gjson.Result) (string, bool) {
	outputText := raw.Get("output_text")
	if outputText.Type == gjson.String && strings.TrimSpace(outputText.String()) != "" {
		return outputText.String(), true
	}
	if outputText.IsArray() {
		var b strings.Builder
		for _, entry := range outputText.Array() {
			if entry.Type == gjson.String {
				b.WriteString(entry.String())
			}
		}
		joined := strings.TrimSpace(b.String())
		if joined != "" {
			return joined, true
		}
	}
	return "", false
}

// joinTextEntries concatenates the `text` of each part. A part's text may be
// a string or an array of string fragments to be joined without separators;
// parts contribute in order, joined by newlines.
func joinTextEntries(entries []gjson.Result) (string, bool) {
	var buffer []string
	for _, entry := range entries {
		if !entry.IsObject() {
			continue
		}
		text := entry.Get("text")
		if text.Type == gjson.String && strings.TrimSpace(text.String()) != "" {
			buffer = append(buffer, text.String())
			continue
		}
		if text.IsArray() {
			var b strings.Builder
			for _, fragment := range text.Array() {
				if fragment.Type == gjson.String {
					b.WriteString(fragment.String())
				}
			}
			if strings.TrimSpace(b.String()) != "" {
				buffer = append(buffer, b.String())
			}
		}
	}
	if len(buffer) == 0 {
		return "", false
	}
	combined := strings.TrimSpace(strings.Join(buffer, "\n"))
	if combined == "" {
		return "", false
	}
	return combined, true
}
