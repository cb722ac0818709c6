package models

// SwipeAction is one row of the append-only swipe log. A user can swipe
// the same target more than once; match detection only cares whether a
// reciprocal like row exists at all.
type SwipeAction struct {
	SubjectID string `dynamodbav:"subjectId" json:"subjectId"` // Partition Key
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"` // Sort Key
	TargetID  string `dynamodbav:"targetId" json:"targetId"`   // Used in GSI
	Action    string `dynamodbav:"action" json:"action"`       // like, pass, superlike
}

// SwipeActionsTable is the DynamoDB table name for the swipe log
const SwipeActionsTable = "SwipeActions"

// TargetIDIndex is the GSI used for reciprocal lookups ("who swiped on me")
const TargetIDIndex = "targetId-index"
