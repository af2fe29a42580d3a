// Package result normalizes raw generative-model output into a canonical
// ranked-recommendation list. It is pure: the same bytes in always produce the
// same value out, and nothing here touches storage or the network. The package
// is invoked both for live generation results and when re-sanitizing records
// pulled from the snapshot store.
package result

// ScoreDetail is one score bucket of a sanitized recommendation. A nil Score
// means the model produced no usable number; a nil Reason means no free-text
// explanation survived sanitization.
type ScoreDetail struct {
	Score  *float64 `json:"score"`
	Reason *string  `json:"reason"`
}

// Recommendation is a single sanitized ranking entry.
type Recommendation struct {
	Name             string      `json:"name"`
	TotalMatch       ScoreDetail `json:"total_match"`
	PersonalityMatch ScoreDetail `json:"personality_match"`
	WorkMatch        ScoreDetail `json:"work_match"`
}

// Snapshot is the canonical sanitized form stored on a session record: rank
// key (stringified positive integer) to recommendation. It is replaced
// wholesale on regeneration, never merged field-by-field.
type Snapshot map[string]Recommendation

// Scores holds the three match scores of a ranked recommendation.
type Scores struct {
	TotalMatch       *float64
	PersonalityMatch *float64
	WorkMatch        *float64
}

// Reasons holds the per-metric free-text explanations.
type Reasons struct {
	TotalMatch       *string
	PersonalityMatch *string
	WorkMatch        *string
}

// Ranked is a single entry of a normalized ranking, ordered by Rank.
type Ranked struct {
	Rank    int
	Name    string
	Scores  Scores
	Reasons Reasons
}

// Normalized is the outcome of parsing raw model output. Rankings may be
// empty; Warnings then explains why. SourceText carries the text the rankings
// were extracted from, when any was found.
type Normalized struct {
	Rankings   []Ranked
	Warnings   []string
	SourceText *string
}

// Warning messages surfaced alongside a degraded parse. These are user-facing
// and intentionally match the product's wording.
const (
	WarnNoResultText  = "LLMの結果テキストが見つかりませんでした。"
	WarnNoJSONSnippet = "LLMの結果からJSONを抽出できませんでした。"
	WarnInvalidJSON   = "LLMの結果が正しいJSON形式ではありません。"
	WarnNoRankings    = "LLMの結果にランキング情報が含まれていません。"
	WarnTruncated     = "LLMの結果が途中で途切れていたため、一部のみ復元しました。"
)
