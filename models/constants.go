package models

// Swipe actions
const (
	ActionLike      = "like"
	ActionPass      = "pass"
	ActionSuperlike = "superlike"
)

// ValidSwipeAction reports whether action is one of the known swipe kinds
func ValidSwipeAction(action string) bool {
	switch action {
	case ActionLike, ActionPass, ActionSuperlike:
		return true
	}
	return false
}

// Content styles (profile tags)
const (
	StyleVlog      = "vlog"
	StyleShortform = "shortform"
	StyleMusic     = "music"
	StyleGaming    = "gaming"
	StyleFitness   = "fitness"
	StyleBeauty    = "beauty"
	StyleFood      = "food"
	StyleTravel    = "travel"
)

// Collaboration preference values
const (
	LookingForCollab     = "collab"
	LookingForDating     = "dating"
	LookingForNetworking = "networking"

	AvailabilityWeekdays = "weekdays"
	AvailabilityWeekends = "weekends"
	AvailabilityEvenings = "evenings"

	ResponseTimeFast   = "fast"
	ResponseTimeDaily  = "daily"
	ResponseTimeWeekly = "weekly"
)
