package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"collabmatch_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// MatchService decides, on every recorded like, whether to materialize
// a match, and guarantees at most one active match per unordered pair.
type MatchService struct {
	Dynamo        *DynamoService
	Ledger        *SwipeService
	Conversations *ConversationService
	Telemetry     *TelemetryService

	// OnMatchCreated fires only on fresh creation (UI celebration,
	// push), never on an evaluate that found the pair already matched.
	OnMatchCreated func(match models.Match)
}

// Evaluate runs the reciprocal-like check for subjectID's like on
// targetID. When a reciprocal like exists it creates the match with a
// conditional write on the canonical pair key, then idempotently
// bootstraps the pair's conversation. Returns the match and whether
// this call freshly created it.
func (ms *MatchService) Evaluate(ctx context.Context, subjectID, targetID string) (*models.Match, bool, error) {
	reciprocal, err := ms.Ledger.HasLiked(ctx, targetID, subjectID)
	if err != nil {
		return nil, false, fmt.Errorf("reciprocal lookup failed: %w", err)
	}
	if !reciprocal {
		return nil, false, nil // no match yet, not an error
	}

	pairID := models.CanonicalPairID(subjectID, targetID)
	match := models.Match{
		PairID:      pairID,
		MatchID:     uuid.NewString(),
		UserID1:     subjectID,
		UserID2:     targetID,
		MatchedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		HasMessaged: false,
		IsActive:    true,
	}

	// A soft-deactivated row counts as absent so a new mutual like
	// after an unmatch reactivates the pair.
	err = ms.Dynamo.PutItemConditional(ctx, models.MatchesTable, match,
		"attribute_not_exists(pairId) OR isActive = :inactive",
		map[string]types.AttributeValue{
			":inactive": &types.AttributeValueMemberBOOL{Value: false},
		}, nil)

	created := err == nil
	if err != nil {
		if !IsConditionalCheckFailed(err) {
			// The swipe row stays put either way; the caller may retry.
			return nil, false, fmt.Errorf("failed to create match: %w", err)
		}
		// Lost the race (or already matched): read the winning row.
		existing, getErr := ms.GetMatch(ctx, subjectID, targetID)
		if getErr != nil {
			return nil, false, fmt.Errorf("match exists but could not be read: %w", getErr)
		}
		match = *existing
	}

	if created {
		log.Printf("🎉 Match created: %s ❤️ %s", subjectID, targetID)
		ms.Telemetry.Track("match_created", map[string]interface{}{"pairId": pairID})
		if ms.OnMatchCreated != nil {
			ms.OnMatchCreated(match)
		}
	}

	// Idempotent bootstrap, fresh match or not.
	if _, err := ms.Conversations.GetOrCreateConversation(ctx, subjectID, targetID); err != nil {
		return &match, created, fmt.Errorf("conversation bootstrap failed: %w", err)
	}

	return &match, created, nil
}

// GetMatch retrieves the match row for an unordered pair.
func (ms *MatchService) GetMatch(ctx context.Context, userA, userB string) (*models.Match, error) {
	key := map[string]types.AttributeValue{
		"pairId": &types.AttributeValueMemberS{Value: models.CanonicalPairID(userA, userB)},
	}

	item, err := ms.Dynamo.GetItem(ctx, models.MatchesTable, key)
	if err != nil {
		return nil, err
	}

	var match models.Match
	if err := attributevalue.UnmarshalMap(item, &match); err != nil {
		return nil, fmt.Errorf("failed to parse match: %w", err)
	}
	return &match, nil
}

// ListMatches returns the active matches userID participates in.
func (ms *MatchService) ListMatches(ctx context.Context, userID string) ([]models.Match, error) {
	filter := "isActive = :active"
	expressionValues := map[string]types.AttributeValue{
		":active": &types.AttributeValueMemberBOOL{Value: true},
	}

	items, err := ms.Dynamo.ScanItems(ctx, models.MatchesTable, filter, expressionValues, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	var all []models.Match
	if err := attributevalue.UnmarshalListOfMaps(items, &all); err != nil {
		return nil, fmt.Errorf("failed to parse matches: %w", err)
	}

	var matches []models.Match
	for _, match := range all {
		if match.UserID1 == userID || match.UserID2 == userID {
			matches = append(matches, match)
		}
	}
	return matches, nil
}

// Deactivate soft-deactivates the pair's match. History is preserved;
// rows are never hard-deleted.
func (ms *MatchService) Deactivate(ctx context.Context, userA, userB string) error {
	key := map[string]types.AttributeValue{
		"pairId": &types.AttributeValueMemberS{Value: models.CanonicalPairID(userA, userB)},
	}

	updateExpression := "SET isActive = :inactive"
	expressionValues := map[string]types.AttributeValue{
		":inactive": &types.AttributeValueMemberBOOL{Value: false},
	}

	if _, err := ms.Dynamo.UpdateItem(ctx, models.MatchesTable, updateExpression, key, expressionValues, nil); err != nil {
		return fmt.Errorf("failed to deactivate match: %w", err)
	}
	ms.Telemetry.Track("match_deactivated", map[string]interface{}{
		"pairId": models.CanonicalPairID(userA, userB),
	})
	return nil
}

// MarkMessaged flips the pair's hasMessaged flag. Best-effort: failures
// are logged, never surfaced, and the message send that triggered it is
// unaffected.
func (ms *MatchService) MarkMessaged(ctx context.Context, userA, userB string) {
	key := map[string]types.AttributeValue{
		"pairId": &types.AttributeValueMemberS{Value: models.CanonicalPairID(userA, userB)},
	}

	updateExpression := "SET hasMessaged = :messaged"
	expressionValues := map[string]types.AttributeValue{
		":messaged": &types.AttributeValueMemberBOOL{Value: true},
	}

	if _, err := ms.Dynamo.UpdateItem(ctx, models.MatchesTable, updateExpression, key, expressionValues, nil); err != nil {
		log.Printf("⚠️ Could not mark match as messaged for %s/%s: %v", userA, userB, err)
	}
}
