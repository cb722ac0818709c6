package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"collabmatch_server/models"
	"collabmatch_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrMalformedProfile is returned when a stored profile is missing its
// uid and cannot be attributed to anyone.
var ErrMalformedProfile = errors.New("malformed profile: missing uid")

type ProfileService struct {
	Dynamo *DynamoService
}

// CreateProfile writes a new profile. The uid must already be assigned
// by the identity provider; creation is rejected for an existing uid.
func (ps *ProfileService) CreateProfile(ctx context.Context, profile models.Profile) (*models.Profile, error) {
	if profile.UID == "" {
		return nil, ErrMalformedProfile
	}

	now := time.Now().UTC().Format(time.RFC3339)
	profile.SchemaVersion = models.ProfileSchemaVersion
	profile.CreatedAt = now
	profile.UpdatedAt = now

	err := ps.Dynamo.PutItemConditional(ctx, models.ProfilesTable, profile,
		"attribute_not_exists(uid)", nil, nil)
	if err != nil {
		if IsConditionalCheckFailed(err) {
			return nil, fmt.Errorf("profile already exists for uid %s", profile.UID)
		}
		return nil, err
	}
	return &profile, nil
}

// GetProfile retrieves a profile by uid, tolerating partially-populated
// records. Defaulted fields are logged, not surfaced.
func (ps *ProfileService) GetProfile(ctx context.Context, uid string) (*models.Profile, error) {
	key := map[string]types.AttributeValue{
		"uid": &types.AttributeValueMemberS{Value: uid},
	}

	item, err := ps.Dynamo.GetItem(ctx, models.ProfilesTable, key)
	if err != nil {
		return nil, err
	}

	profile, defaulted, err := DecodeProfile(item)
	if err != nil {
		return nil, err
	}
	if len(defaulted) > 0 {
		log.Printf("⚠️ Profile %s decoded with defaulted fields: %v", uid, defaulted)
	}
	return profile, nil
}

// optionalProfileFields are checked for presence so the decoder can
// report which ones it had to default.
var optionalProfileFields = []string{
	"displayName", "age", "bio", "location", "interests", "contentStyles",
	"socialLinks", "mediaUrls", "collaborationPreferences",
}

// DecodeProfile is the tolerant, schema-versioned profile parser. A
// malformed optional field falls back to its zero default instead of
// failing the whole load; only a missing uid is a hard error. The
// second return value names every field that was defaulted.
func DecodeProfile(item map[string]types.AttributeValue) (*models.Profile, []string, error) {
	uid := utils.ExtractString(item, "uid")
	if uid == "" {
		return nil, nil, ErrMalformedProfile
	}

	var defaulted []string
	for _, field := range optionalProfileFields {
		if !utils.HasAttribute(item, field) {
			defaulted = append(defaulted, field)
		}
	}

	var profile models.Profile
	if err := attributevalue.UnmarshalMap(item, &profile); err == nil {
		profile.UID = uid
		return &profile, defaulted, nil
	}

	// Whole-record unmarshal failed: rebuild field by field so one bad
	// attribute cannot take the profile down with it.
	profile = models.Profile{
		UID:           uid,
		SchemaVersion: utils.ExtractInt(item, "schemaVersion"),
		DisplayName:   utils.ExtractString(item, "displayName"),
		Age:           utils.ExtractInt(item, "age"),
		Bio:           utils.ExtractString(item, "bio"),
		Interests:     utils.ExtractStringList(item, "interests"),
		ContentStyles: utils.ExtractStringList(item, "contentStyles"),
		MediaURLs:     utils.ExtractStringList(item, "mediaUrls"),
		IsVerified:    utils.ExtractBool(item, "isVerified"),
		FollowerCount: utils.ExtractInt(item, "followerCount"),
		FeaturedUntil: utils.ExtractString(item, "featuredUntil"),
		CreatedAt:     utils.ExtractString(item, "createdAt"),
		UpdatedAt:     utils.ExtractString(item, "updatedAt"),
	}

	if attr, ok := item["location"]; ok {
		var loc models.Location
		if err := attributevalue.Unmarshal(attr, &loc); err == nil {
			profile.Location = &loc
		} else {
			defaulted = append(defaulted, "location")
		}
	}
	if attr, ok := item["socialLinks"]; ok {
		var links []models.SocialLink
		if err := attributevalue.Unmarshal(attr, &links); err == nil {
			profile.SocialLinks = links
		} else {
			defaulted = append(defaulted, "socialLinks")
		}
	}
	if attr, ok := item["collaborationPreferences"]; ok {
		var prefs models.CollaborationPreferences
		if err := attributevalue.Unmarshal(attr, &prefs); err == nil {
			profile.CollabPrefs = prefs
		} else {
			defaulted = append(defaulted, "collaborationPreferences")
		}
	}

	return &profile, defaulted, nil
}

// UpdateProfile applies a partial update. The uid is immutable and
// silently stripped from the update set.
func (ps *ProfileService) UpdateProfile(ctx context.Context, uid string, updates map[string]interface{}) (*models.Profile, error) {
	delete(updates, "uid")
	if len(updates) == 0 {
		return ps.GetProfile(ctx, uid)
	}
	updates["updatedAt"] = time.Now().UTC().Format(time.RFC3339)

	key := map[string]types.AttributeValue{
		"uid": &types.AttributeValueMemberS{Value: uid},
	}

	updateExpression := "SET"
	expressionAttributeValues := make(map[string]types.AttributeValue)
	expressionAttributeNames := make(map[string]string)

	for k, v := range updates {
		placeholder := ":" + k
		attributeName := "#" + k
		updateExpression += " " + attributeName + " = " + placeholder + ","

		value, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal update for %s: %w", k, err)
		}
		expressionAttributeValues[placeholder] = value
		expressionAttributeNames[attributeName] = k
	}
	updateExpression = updateExpression[:len(updateExpression)-1]

	updatedItem, err := ps.Dynamo.UpdateItem(ctx, models.ProfilesTable, updateExpression, key, expressionAttributeValues, expressionAttributeNames)
	if err != nil {
		return nil, err
	}

	profile, _, err := DecodeProfile(updatedItem)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// DeleteProfile removes a profile. Only used on account deletion.
func (ps *ProfileService) DeleteProfile(ctx context.Context, uid string) error {
	key := map[string]types.AttributeValue{
		"uid": &types.AttributeValueMemberS{Value: uid},
	}
	return ps.Dynamo.DeleteItem(ctx, models.ProfilesTable, key)
}
