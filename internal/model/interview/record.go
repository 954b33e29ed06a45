package interview

import "time"

// Assessment is the structured review produced when a session ends.
type Assessment struct {
	Summary      string   `json:"summary" bson:"summary"`
	Strengths    []string `json:"strengths" bson:"strengths"`
	Improvements []string `json:"improvements" bson:"improvements"`
	Score        int      `json:"score" bson:"score"` // 0-100
}

// Record is the persisted summary of one completed interview. Written
// wholesale to the document store; last write wins.
type Record struct {
	SessionID  string      `json:"sessionId" bson:"_id"`
	TargetRole string      `json:"targetRole" bson:"targetRole"`
	Level      Level       `json:"level" bson:"level"`
	Transcript []Message   `json:"transcript" bson:"transcript"`
	Assessment *Assessment `json:"assessment,omitempty" bson:"assessment,omitempty"`
	StartedAt  time.Time   `json:"startedAt" bson:"startedAt"`
	EndedAt    time.Time   `json:"endedAt" bson:"endedAt"`
}
