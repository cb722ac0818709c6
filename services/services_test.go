package services

import (
	"context"
	"testing"
	"time"

	"collabmatch_server/models"
)

// testEnv wires the full service graph against the in-memory fake, the
// same way main.go wires it against the real client.
type testEnv struct {
	fake          *fakeDynamo
	dynamo        *DynamoService
	profiles      *ProfileService
	swipes        *SwipeService
	matches       *MatchService
	conversations *ConversationService
	discovery     *DiscoveryService
	featured      *FeaturedService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fake := newFakeDynamo()
	dynamo := &DynamoService{Client: fake}

	profiles := &ProfileService{Dynamo: dynamo}
	swipes := &SwipeService{Dynamo: dynamo}
	conversations := &ConversationService{Dynamo: dynamo}
	matches := &MatchService{Dynamo: dynamo, Ledger: swipes, Conversations: conversations}
	swipes.Matches = matches
	conversations.Matches = matches

	return &testEnv{
		fake:          fake,
		dynamo:        dynamo,
		profiles:      profiles,
		swipes:        swipes,
		matches:       matches,
		conversations: conversations,
		discovery:     &DiscoveryService{Dynamo: dynamo, Profiles: profiles, Ledger: swipes},
		featured:      &FeaturedService{Dynamo: dynamo},
	}
}

func (env *testEnv) failNextPut(tableName string, err error) {
	env.fake.mu.Lock()
	defer env.fake.mu.Unlock()
	if env.fake.failPut == nil {
		env.fake.failPut = make(map[string]error)
	}
	env.fake.failPut[tableName] = err
}

func (env *testEnv) countRows(t *testing.T, tableName string) int {
	t.Helper()
	env.fake.mu.Lock()
	defer env.fake.mu.Unlock()
	return len(env.fake.tables[tableName].items)
}

func (env *testEnv) seedProfile(t *testing.T, profile models.Profile) {
	t.Helper()
	if _, err := env.profiles.CreateProfile(context.Background(), profile); err != nil {
		t.Fatalf("seed profile %s: %v", profile.UID, err)
	}
}

// seedSwipe writes a ledger row directly, without triggering match
// evaluation, for tests that drive Evaluate by hand.
func (env *testEnv) seedSwipe(t *testing.T, subjectID, targetID, action string, at time.Time) {
	t.Helper()
	swipe := models.SwipeAction{
		SubjectID: subjectID,
		CreatedAt: at.UTC().Format(time.RFC3339Nano),
		TargetID:  targetID,
		Action:    action,
	}
	if err := env.dynamo.PutItem(context.Background(), models.SwipeActionsTable, swipe); err != nil {
		t.Fatalf("seed swipe: %v", err)
	}
}
