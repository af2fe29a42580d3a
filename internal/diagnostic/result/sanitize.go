package result

import (
	"encoding/json"
	"strconv"

	"github.com/tidwall/gjson"
)

// isSanitizedScoreBucket reports whether the value is a canonical score
// bucket: an object with a number-or-null score and a string-or-null reason,
// both present.
func isSanitizedScoreBucket(value gjson.Result) bool {
	if !value.IsObject() {
		return false
	}
	// a missing key also reports type Null in gjson; the canonical form
	// requires score and reason to be present
	score := value.Get("score")
	reason := value.Get("reason")
	validScore := score.Type == gjson.Number || (score.Type == gjson.Null && score.Exists())
	validReason := reason.Type == gjson.String || (reason.Type == gjson.Null && reason.Exists())
	return validScore && validReason
}

// isSanitizedRecommendation reports whether the value is a canonical entry:
// a string name plus three valid score buckets.
func isSanitizedRecommendation(value gjson.Result) bool {
	if !value.IsObject() {
		return false
	}
	if value.Get("name").Type != gjson.String {
		return false
	}
	return isSanitizedScoreBucket(value.Get("total_match")) &&
		isSanitizedScoreBucket(value.Get("personality_match")) &&
		isSanitizedScoreBucket(value.Get("work_match"))
}

// IsSanitized reports whether the payload is already in canonical sanitized
// form: a non-empty object where every key is a stringified positive integer
// mapping to a valid recommendation.
func IsSanitized(raw gjson.Result) bool {
	if !raw.IsObject() {
		return false
	}
	count := 0
	valid := true
	raw.ForEach(func(key, value gjson.Result) bool {
		count++
		if !rankKeyRegex.MatchString(key.String()) || !isSanitizedRecommendation(value) {
			valid = false
			return false
		}
		return true
	})
	return valid && count > 0
}

// parseSanitizedDocument accepts a payload whose digit-keyed entries are all
// in canonical form, ignoring non-digit keys. Unlike IsSanitized, a single
// malformed digit-keyed entry rejects the whole document so a partially
// canonical payload falls through to text extraction.
func parseSanitizedDocument(raw gjson.Result) (rankingDocument, bool) {
	if !raw.IsObject() {
		return nil, false
	}
	doc := rankingDocument{}
	valid := true
	raw.ForEach(func(key, value gjson.Result) bool {
		if !rankKeyRegex.MatchString(key.String()) || !value.IsObject() {
			return true
		}
		if !isSanitizedRecommendation(value) {
			valid = false
			return false
		}
		doc[key.String()] = value
		return true
	})
	if !valid || len(doc) == 0 {
		return nil, false
	}
	return doc, true
}

// SanitizeSnapshot converts raw model output into the canonical stored form.
// Already-sanitized payloads are accepted verbatim, which makes re-sanitizing
// a stored session a no-op. Returns nil when nothing usable was recovered.
func SanitizeSnapshot(raw []byte) Snapshot {
	payload := parsePayload(raw)
	if IsSanitized(payload) {
		var snapshot Snapshot
		if err := json.Unmarshal([]byte(payload.Raw), &snapshot); err == nil && len(snapshot) > 0 {
			return snapshot
		}
		return nil
	}

	return Normalize(raw).Snapshot()
}

// Snapshot converts the normalized rankings into the canonical stored form,
// keyed by rank (falling back to list position for rankless entries). Returns
// nil when no rankings were recovered.
func (n Normalized) Snapshot() Snapshot {
	if len(n.Rankings) == 0 {
		return nil
	}
	snapshot := Snapshot{}
	for index, ranking := range n.Rankings {
		key := strconv.Itoa(index + 1)
		if ranking.Rank > 0 {
			key = strconv.Itoa(ranking.Rank)
		}
		snapshot[key] = Recommendation{
			Name: ranking.Name,
			TotalMatch: ScoreDetail{
				Score:  ranking.Scores.TotalMatch,
				Reason: ranking.Reasons.TotalMatch,
			},
			PersonalityMatch: ScoreDetail{
				Score:  ranking.Scores.PersonalityMatch,
				Reason: ranking.Reasons.PersonalityMatch,
			},
			WorkMatch: ScoreDetail{
				Score:  ranking.Scores.WorkMatch,
				Reason: ranking.Reasons.WorkMatch,
			},
		}
	}
	return snapshot
}

// Resanitize runs an in-memory snapshot back through the sanitizer. Used when
// preparing records for persistence to guard against foreign-shaped values.
func Resanitize(snapshot Snapshot) Snapshot {
	if len(snapshot) == 0 {
		return nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil
	}
	return SanitizeSnapshot(raw)
}
