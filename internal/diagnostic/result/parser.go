package result

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var jsonBlockRegex = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

var rankKeyRegex = regexp.MustCompile(`^\d+$`)

var recoveryEntryRegex = regexp.MustCompile(`"(\d+)"\s*:\s*\{`)

// rankingDocument maps a digit rank key to the raw JSON of its entry.
type rankingDocument map[string]gjson.Result

// Normalize extracts a canonical ranked-recommendation list from arbitrary
// model output. The payload may already be in sanitized form, wrapped in a
// vendor envelope, fenced in a markdown code block, or truncated mid-stream;
// each degradation downgrades to a best-effort partial result plus a warning
// rather than a hard failure.
func Normalize(raw []byte) Normalized {
	payload := parsePayload(raw)

	if doc, ok := parseSanitizedDocument(payload); ok {
		rankings := buildRankings(doc)
		if len(rankings) > 0 {
			source := reassembleDocument(doc)
			return Normalized{Rankings: rankings, SourceText: &source}
		}
	}

	sourceText, ok := ExtractContentText(payload)
	if !ok {
		return Normalized{Warnings: []string{WarnNoResultText}}
	}

	jsonText := ExtractJSONSnippet(sourceText)
	if jsonText == "" {
		return Normalized{Warnings: []string{WarnNoJSONSnippet}, SourceText: &sourceText}
	}

	document, strict := parseRankingDocument(jsonText)
	if document == nil {
		document = recoverRankingDocument(jsonText)
	}
	if document == nil {
		return Normalized{Warnings: []string{WarnInvalidJSON}, SourceText: &sourceText}
	}

	rankings := buildRankings(document)
	if len(rankings) == 0 {
		return Normalized{Warnings: []string{WarnNoRankings}, SourceText: &sourceText}
	}

	var warnings []string
	if !strict {
		warnings = append(warnings, WarnTruncated)
	}
	return Normalized{Rankings: rankings, Warnings: warnings, SourceText: &sourceText}
}

// parsePayload interprets the raw bytes as JSON when possible. Bytes that are
// not valid JSON are treated as a plain text payload.
func parsePayload(raw []byte) gjson.Result {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return gjson.Result{}
	}
	if gjson.Valid(trimmed) {
		return gjson.Parse(trimmed)
	}
	return gjson.Result{Type: gjson.String, Str: string(raw)}
}

// ExtractJSONSnippet returns the interior of the first fenced code block
// (optionally tagged `json`) when one is present, otherwise the whole trimmed
// text. Returns "" for whitespace-only input.
func ExtractJSONSnippet(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if m := jsonBlockRegex.FindStringSubmatch(text); m != nil {
		if snippet := strings.TrimSpace(m[1]); snippet != "" {
			return snippet
		}
	}
	return strings.TrimSpace(text)
}

// parseRankingDocument attempts a strict JSON parse. The second return is
// true when the text was well-formed, letting the caller distinguish a clean
// parse from a recovery parse.
func parseRankingDocument(jsonText string) (rankingDocument, bool) {
	if !gjson.Valid(jsonText) {
		return nil, false
	}
	parsed := gjson.Parse(jsonText)
	if !parsed.IsObject() {
		return nil, false
	}
	doc := rankingDocument{}
	parsed.ForEach(func(key, value gjson.Result) bool {
		if rankKeyRegex.MatchString(key.String()) && value.IsObject() {
			doc[key.String()] = value
		}
		return true
	})
	return doc, true
}

// recoverRankingDocument scans for `"<digits>": {` and brace-matches each
// entry so every self-contained object parses independently. This recovers as
// many complete leading entries as possible from output cut off mid-stream.
func recoverRankingDocument(text string) rankingDocument {
	doc := rankingDocument{}
	for _, match := range recoveryEntryRegex.FindAllStringSubmatchIndex(text, -1) {
		key := text[match[2]:match[3]]
		start := strings.Index(text[match[0]:], "{")
		if start == -1 {
			continue
		}
		start += match[0]
		end := findClosingBraceIndex(text, start)
		if end == -1 {
			continue
		}
		block := text[start : end+1]
		if !gjson.Valid(block) {
			continue
		}
		parsed := gjson.Parse(block)
		if parsed.IsObject() {
			doc[key] = parsed
		}
	}
	if len(doc) == 0 {
		return nil
	}
	return doc
}

// findClosingBraceIndex locates the brace matching text[start], respecting
// quoted strings and escape sequences. Returns -1 when the object never
// closes.
func findClosingBraceIndex(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i
				}
				if depth < 0 {
					return -1
				}
			}
		}
	}
	return -1
}

// buildRankings orders the document's entries by numeric rank key and builds
// one Ranked per entry.
func buildRankings(doc rankingDocument) []Ranked {
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})

	rankings := make([]Ranked, 0, len(keys))
	for _, key := range keys {
		rankings = append(rankings, buildRankingEntry(key, doc[key]))
	}
	return rankings
}

func buildRankingEntry(rankKey string, payload gjson.Result) Ranked {
	rank, err := strconv.Atoi(rankKey)
	if err != nil {
		rank = 0
	}

	fallbackName := "候補"
	if rank > 0 {
		fallbackName = "候補" + strconv.Itoa(rank)
	}
	name := fallbackName
	if s := normalizeString(payload.Get("name")); s != nil {
		name = *s
	}

	total := payload.Get("total_match")
	personality := payload.Get("personality_match")
	work := payload.Get("work_match")

	return Ranked{
		Rank: rank,
		Name: name,
		Scores: Scores{
			TotalMatch:       extractScore(total),
			PersonalityMatch: extractScore(personality),
			WorkMatch:        extractScore(work),
		},
		Reasons: Reasons{
			TotalMatch:       extractReason(total),
			PersonalityMatch: extractReason(personality),
			WorkMatch:        extractReason(work),
		},
	}
}

// extractScore accepts either a bare number or an object carrying a `score`
// field. Numeric strings are tolerated; anything else yields nil.
func extractScore(bucket gjson.Result) *float64 {
	if bucket.IsObject() {
		if score := bucket.Get("score"); score.Exists() {
			return clampScore(score)
		}
		return nil
	}
	return clampScore(bucket)
}

// clampScore bounds a score to [0,100] and rounds to one decimal place.
func clampScore(value gjson.Result) *float64 {
	var num float64
	switch value.Type {
	case gjson.Number:
		num = value.Float()
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value.String()), 64)
		if err != nil {
			return nil
		}
		num = parsed
	default:
		return nil
	}
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return nil
	}
	clamped := math.Min(math.Max(num, 0), 100)
	rounded := math.Round(clamped*10) / 10
	return &rounded
}

// extractReason accepts either a bare string or an object carrying a `reason`
// field.
func extractReason(bucket gjson.Result) *string {
	if bucket.IsObject() {
		if reason := bucket.Get("reason"); reason.Exists() {
			return normalizeString(reason)
		}
		return nil
	}
	return normalizeString(bucket)
}

// normalizeString returns the trimmed string, or nil when the value is not a
// string or trims to empty.
func normalizeString(value gjson.Result) *string {
	if value.Type != gjson.String {
		return nil
	}
	trimmed := strings.TrimSpace(value.String())
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// reassembleDocument rebuilds the raw JSON of a sanitized document with keys
// in ascending rank order, for use as SourceText on the direct-acceptance
// path.
func reassembleDocument(doc rankingDocument) string {
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
	var b strings.Builder
	b.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(key))
		b.WriteByte(':')
		b.WriteString(doc[key].Raw)
	}
	b.WriteByte('}')
	return b.String()
}
