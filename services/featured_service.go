package services

import (
	"context"
	"fmt"
	"time"

	"collabmatch_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// FeaturedService is the entitlement boundary for paid, time-boxed
// featured placement. The grant itself comes from the payment system;
// this only records and reads the expiry on the profile.
type FeaturedService struct {
	Dynamo    *DynamoService
	Telemetry *TelemetryService
}

// IsFeatured reports whether userID currently holds a featured grant.
func (fs *FeaturedService) IsFeatured(ctx context.Context, userID string) (bool, error) {
	key := map[string]types.AttributeValue{
		"uid": &types.AttributeValueMemberS{Value: userID},
	}

	item, err := fs.Dynamo.GetItem(ctx, models.ProfilesTable, key)
	if err != nil {
		return false, err
	}

	attr, ok := item["featuredUntil"]
	if !ok {
		return false, nil
	}
	raw, ok := attr.(*types.AttributeValueMemberS)
	if !ok {
		return false, nil
	}

	until, err := time.Parse(time.RFC3339, raw.Value)
	if err != nil {
		return false, fmt.Errorf("unparseable featuredUntil for %s: %w", userID, err)
	}
	return until.After(time.Now().UTC()), nil
}

// GrantFeatured records a featured grant until expiresAt.
func (fs *FeaturedService) GrantFeatured(ctx context.Context, userID string, expiresAt time.Time) error {
	key := map[string]types.AttributeValue{
		"uid": &types.AttributeValueMemberS{Value: userID},
	}

	updateExpression := "SET featuredUntil = :until"
	expressionValues := map[string]types.AttributeValue{
		":until": &types.AttributeValueMemberS{Value: expiresAt.UTC().Format(time.RFC3339)},
	}

	if _, err := fs.Dynamo.UpdateItem(ctx, models.ProfilesTable, updateExpression, key, expressionValues, nil); err != nil {
		return fmt.Errorf("failed to grant featured placement: %w", err)
	}
	fs.Telemetry.Track("featured_granted", map[string]interface{}{"uid": userID})
	return nil
}
