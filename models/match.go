package models

import (
	"sort"
	"strings"
)

// Match is the mutual-like record for a pair of users. The partition key
// is the canonical pair id, so there can only ever be one row per pair
// and the conditional create needs no both-orderings check.
type Match struct {
	PairID      string `dynamodbav:"pairId" json:"pairId"` // Partition Key
	MatchID     string `dynamodbav:"matchId" json:"matchId"`
	UserID1     string `dynamodbav:"userId1" json:"userId1"`
	UserID2     string `dynamodbav:"userId2" json:"userId2"`
	MatchedAt   string `dynamodbav:"matchedAt" json:"matchedAt"`
	HasMessaged bool   `dynamodbav:"hasMessaged" json:"hasMessaged"`
	IsActive    bool   `dynamodbav:"isActive" json:"isActive"`
}

// MatchesTable is the DynamoDB table name for matches
const MatchesTable = "Matches"

// CanonicalPairID builds the deterministic id for an unordered pair of
// user ids. Both orderings of the same pair map to the same key.
func CanonicalPairID(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, "#")
}

// Other returns the counterpart of userID in the match, or "" when
// userID is not a participant.
func (m Match) Other(userID string) string {
	switch userID {
	case m.UserID1:
		return m.UserID2
	case m.UserID2:
		return m.UserID1
	}
	return ""
}
