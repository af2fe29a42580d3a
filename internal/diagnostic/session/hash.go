package session

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// ComputeVersionOptionsHash fingerprints an answer set for duplicate-submission
// detection. Option ids are compared as strings and sorted so the digest is
// independent of selection order: hash(v, [5,3]) == hash(v, [3,5]).
func ComputeVersionOptionsHash(versionID int64, optionIDs []int64) string {
	ids := make([]string, 0, len(optionIDs))
	for _, id := range optionIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	sort.Strings(ids)

	payload := "v" + strconv.FormatInt(versionID, 10) + ":" + strings.Join(ids, ",")
	digest := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(digest[:])
}
