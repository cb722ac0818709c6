package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"collabmatch_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// SwipeService is the append-only ledger of directional swipe actions.
// It is the source of truth for match detection.
type SwipeService struct {
	Dynamo    *DynamoService
	Matches   *MatchService // set after construction, see main.go
	Telemetry *TelemetryService
}

// Record appends a swipe row. Empty ids are a logged skip, not an
// error. A like triggers match evaluation synchronously, but an
// evaluation failure never destroys the recorded swipe.
func (s *SwipeService) Record(ctx context.Context, subjectID, targetID, action string, at time.Time) error {
	if subjectID == "" || targetID == "" {
		log.Printf("⚠️ Dropping swipe with empty ids (subject=%q target=%q)", subjectID, targetID)
		return nil
	}
	if !models.ValidSwipeAction(action) {
		return fmt.Errorf("invalid swipe action: %q", action)
	}

	swipe := models.SwipeAction{
		SubjectID: subjectID,
		CreatedAt: at.UTC().Format(time.RFC3339Nano),
		TargetID:  targetID,
		Action:    action,
	}

	if err := s.Dynamo.PutItem(ctx, models.SwipeActionsTable, swipe); err != nil {
		return fmt.Errorf("failed to record swipe: %w", err)
	}
	s.Telemetry.Track("swipe_recorded", map[string]interface{}{
		"subjectId": subjectID, "action": action,
	})

	if action == models.ActionLike || action == models.ActionSuperlike {
		if _, _, err := s.Matches.Evaluate(ctx, subjectID, targetID); err != nil {
			// The swipe row is already durable; the next reciprocal like
			// re-runs the evaluation.
			log.Printf("❌ Match evaluation failed for %s -> %s: %v", subjectID, targetID, err)
		}
	}

	return nil
}

// Undo deletes the most recent swipe row for the ordered pair. Used for
// the undo-swipe / unlike action.
func (s *SwipeService) Undo(ctx context.Context, subjectID, targetID string) error {
	if subjectID == "" || targetID == "" {
		log.Printf("⚠️ Dropping undo with empty ids (subject=%q target=%q)", subjectID, targetID)
		return nil
	}

	swipes, err := s.listBySubject(ctx, subjectID)
	if err != nil {
		return err
	}

	latest := ""
	for _, swipe := range swipes {
		if swipe.TargetID == targetID && swipe.CreatedAt > latest {
			latest = swipe.CreatedAt
		}
	}
	if latest == "" {
		return nil // nothing to undo
	}

	key := map[string]types.AttributeValue{
		"subjectId": &types.AttributeValueMemberS{Value: subjectID},
		"createdAt": &types.AttributeValueMemberS{Value: latest},
	}
	if err := s.Dynamo.DeleteItem(ctx, models.SwipeActionsTable, key); err != nil {
		return fmt.Errorf("failed to undo swipe: %w", err)
	}
	s.Telemetry.Track("swipe_undone", map[string]interface{}{"subjectId": subjectID})
	return nil
}

// ListTargets returns the set of ids the subject has ever swiped on,
// regardless of action. Discovery uses it to exclude seen profiles.
func (s *SwipeService) ListTargets(ctx context.Context, subjectID string) (map[string]struct{}, error) {
	swipes, err := s.listBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	targets := make(map[string]struct{}, len(swipes))
	for _, swipe := range swipes {
		targets[swipe.TargetID] = struct{}{}
	}
	return targets, nil
}

// HasLiked reports whether a like (or superlike) row exists for the
// ordered pair. Only existence matters, not the row count.
func (s *SwipeService) HasLiked(ctx context.Context, subjectID, targetID string) (bool, error) {
	swipes, err := s.listBySubject(ctx, subjectID)
	if err != nil {
		return false, err
	}

	for _, swipe := range swipes {
		if swipe.TargetID == targetID &&
			(swipe.Action == models.ActionLike || swipe.Action == models.ActionSuperlike) {
			return true, nil
		}
	}
	return false, nil
}

// ListAdmirers returns the distinct ids of users who have liked userID,
// via the targetId GSI.
func (s *SwipeService) ListAdmirers(ctx context.Context, userID string) ([]string, error) {
	keyCondition := "targetId = :target"
	expressionValues := map[string]types.AttributeValue{
		":target": &types.AttributeValueMemberS{Value: userID},
	}

	items, err := s.Dynamo.QueryAllItems(ctx, models.SwipeActionsTable, models.TargetIDIndex, keyCondition, expressionValues, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch admirers: %w", err)
	}

	seen := make(map[string]struct{})
	var admirers []string
	for _, item := range items {
		var swipe models.SwipeAction
		if err := attributevalue.UnmarshalMap(item, &swipe); err != nil {
			log.Printf("⚠️ Skipping unparseable swipe row: %v", err)
			continue
		}
		if swipe.Action != models.ActionLike && swipe.Action != models.ActionSuperlike {
			continue
		}
		if _, ok := seen[swipe.SubjectID]; ok {
			continue
		}
		seen[swipe.SubjectID] = struct{}{}
		admirers = append(admirers, swipe.SubjectID)
	}
	return admirers, nil
}

func (s *SwipeService) listBySubject(ctx context.Context, subjectID string) ([]models.SwipeAction, error) {
	keyCondition := "subjectId = :subject"
	expressionValues := map[string]types.AttributeValue{
		":subject": &types.AttributeValueMemberS{Value: subjectID},
	}

	items, err := s.Dynamo.QueryAllItems(ctx, models.SwipeActionsTable, "", keyCondition, expressionValues, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch swipes for %s: %w", subjectID, err)
	}

	var swipes []models.SwipeAction
	if err := attributevalue.UnmarshalListOfMaps(items, &swipes); err != nil {
		return nil, fmt.Errorf("failed to parse swipes: %w", err)
	}
	return swipes, nil
}
