package models

// Coordinates holds a profile's last known position
type Coordinates struct {
	Latitude  float64 `dynamodbav:"latitude" json:"latitude"`
	Longitude float64 `dynamodbav:"longitude" json:"longitude"`
}

type Location struct {
	City        string       `dynamodbav:"city,omitempty" json:"city,omitempty"`
	State       string       `dynamodbav:"state,omitempty" json:"state,omitempty"`
	Country     string       `dynamodbav:"country,omitempty" json:"country,omitempty"`
	Coordinates *Coordinates `dynamodbav:"coordinates,omitempty" json:"coordinates,omitempty"`
}

// SocialLink is a per-platform handle with audience metadata
type SocialLink struct {
	Platform      string `dynamodbav:"platform" json:"platform"`
	Handle        string `dynamodbav:"handle" json:"handle"`
	FollowerCount int    `dynamodbav:"followerCount" json:"followerCount"`
	Verified      bool   `dynamodbav:"verified" json:"verified"`
}

type CollaborationPreferences struct {
	LookingFor   []string `dynamodbav:"lookingFor,omitempty" json:"lookingFor,omitempty"`
	Availability []string `dynamodbav:"availability,omitempty" json:"availability,omitempty"`
	ResponseTime string   `dynamodbav:"responseTime,omitempty" json:"responseTime,omitempty"`
}

// Profile defines the structure for creator profiles.
// UID is immutable once written; everything else is owned by the user.
type Profile struct {
	UID            string                   `dynamodbav:"uid" json:"uid"`
	SchemaVersion  int                      `dynamodbav:"schemaVersion" json:"schemaVersion"`
	DisplayName    string                   `dynamodbav:"displayName,omitempty" json:"displayName,omitempty"`
	Age            int                      `dynamodbav:"age,omitempty" json:"age,omitempty"`
	Bio            string                   `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	Location       *Location                `dynamodbav:"location,omitempty" json:"location,omitempty"`
	Interests      []string                 `dynamodbav:"interests,omitempty" json:"interests,omitempty"`
	ContentStyles  []string                 `dynamodbav:"contentStyles,omitempty" json:"contentStyles,omitempty"`
	SocialLinks    []SocialLink             `dynamodbav:"socialLinks,omitempty" json:"socialLinks,omitempty"`
	MediaURLs      []string                 `dynamodbav:"mediaUrls,omitempty" json:"mediaUrls,omitempty"`
	IsVerified     bool                     `dynamodbav:"isVerified" json:"isVerified"`
	FollowerCount  int                      `dynamodbav:"followerCount" json:"followerCount"`
	CollabPrefs    CollaborationPreferences `dynamodbav:"collaborationPreferences" json:"collaborationPreferences"`
	FeaturedUntil  string                   `dynamodbav:"featuredUntil,omitempty" json:"featuredUntil,omitempty"`
	CreatedAt      string                   `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt      string                   `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// ProfilesTable is the DynamoDB table name for creator profiles
const ProfilesTable = "Profiles"

// ProfileSchemaVersion is stamped on every write; the tolerant decoder
// uses it to tell an old record from a broken one.
const ProfileSchemaVersion = 1
