package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"collabmatch_server/models"
	"collabmatch_server/utils"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// RankingStrategy selects how candidates are ordered. The two
// strategies are deliberately distinct; they are never blended.
type RankingStrategy string

const (
	// RankByAffinity orders by tag overlap, best first.
	RankByAffinity RankingStrategy = "affinity"
	// RankByDistance orders by haversine distance, nearest first.
	// Profiles without coordinates sort last.
	RankByDistance RankingStrategy = "distance"
)

// nativeExcludeLimit is how many exclusions are pushed into the store's
// filter expression; the remainder is filtered client-side.
const nativeExcludeLimit = 10

// overFetchFactor compensates for client-side filtering shrinking the
// page below the requested limit.
const overFetchFactor = 4

// DiscoveryService produces the ranked candidate feed for a subject.
type DiscoveryService struct {
	Dynamo   *DynamoService
	Profiles *ProfileService
	Ledger   *SwipeService
}

// CandidatesForUser is the feed entrypoint: it loads the subject's
// profile, derives the exclusion set from the swipe ledger, and ranks.
func (ds *DiscoveryService) CandidatesForUser(ctx context.Context, uid string, limit int, strategy RankingStrategy) ([]models.Profile, error) {
	subject, err := ds.Profiles.GetProfile(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load subject profile: %w", err)
	}

	swiped, err := ds.Ledger.ListTargets(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load swiped targets: %w", err)
	}

	return ds.NextCandidates(ctx, subject, limit, swiped, strategy)
}

// NextCandidates returns up to limit profiles for the subject, never
// including the subject itself or anything in excludeIDs, ordered by
// the chosen strategy.
func (ds *DiscoveryService) NextCandidates(
	ctx context.Context,
	subject *models.Profile,
	limit int,
	excludeIDs map[string]struct{},
	strategy RankingStrategy,
) ([]models.Profile, error) {
	if limit <= 0 {
		return nil, nil
	}

	exclude := make(map[string]struct{}, len(excludeIDs)+1)
	exclude[subject.UID] = struct{}{}
	for id := range excludeIDs {
		exclude[id] = struct{}{}
	}

	// Push the first few exclusions into the scan filter; anything past
	// the native limit is filtered after the fetch.
	var filter string
	expressionValues := map[string]types.AttributeValue{}
	native := 0
	for id := range exclude {
		if native == nativeExcludeLimit {
			break
		}
		placeholder := ":ex" + strconv.Itoa(native)
		if native > 0 {
			filter += " AND "
		}
		filter += "uid <> " + placeholder
		expressionValues[placeholder] = &types.AttributeValueMemberS{Value: id}
		native++
	}

	pageSize := int32(limit*overFetchFactor + len(exclude))
	items, err := ds.Dynamo.ScanItems(ctx, models.ProfilesTable, filter, expressionValues, nil, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to scan candidate profiles: %w", err)
	}

	var candidates []models.Profile
	for _, item := range items {
		profile, _, err := DecodeProfile(item)
		if err != nil {
			continue // unattributable row, skip
		}
		if _, excluded := exclude[profile.UID]; excluded {
			continue
		}
		candidates = append(candidates, *profile)
	}

	switch strategy {
	case RankByDistance:
		rankByDistance(subject, candidates)
	default:
		rankByAffinity(subject, candidates)
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// AffinityScore weighs shared content styles double against shared
// interests.
func AffinityScore(subject *models.Profile, candidate *models.Profile) int {
	return 2*intersectionSize(subject.ContentStyles, candidate.ContentStyles) +
		intersectionSize(subject.Interests, candidate.Interests)
}

func rankByAffinity(subject *models.Profile, candidates []models.Profile) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return AffinityScore(subject, &candidates[i]) > AffinityScore(subject, &candidates[j])
	})
}

func rankByDistance(subject *models.Profile, candidates []models.Profile) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return distanceFrom(subject, &candidates[i]) < distanceFrom(subject, &candidates[j])
	})
}

// distanceFrom returns +Inf when either side lacks coordinates, which
// sorts coordinate-less profiles last.
func distanceFrom(subject *models.Profile, candidate *models.Profile) float64 {
	sc := coordinatesOf(subject)
	cc := coordinatesOf(candidate)
	if sc == nil || cc == nil {
		return math.Inf(1)
	}
	return utils.CalculateDistance(sc.Latitude, sc.Longitude, cc.Latitude, cc.Longitude)
}

func coordinatesOf(p *models.Profile) *models.Coordinates {
	if p.Location == nil {
		return nil
	}
	return p.Location.Coordinates
}

func intersectionSize(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	count := 0
	for _, v := range b {
		if _, ok := set[v]; ok {
			count++
			delete(set, v)
		}
	}
	return count
}
