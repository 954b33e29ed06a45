package interview

import "time"

// Role tags one side of the conversation.
type Role string

const (
	RoleCandidate   Role = "candidate"
	RoleInterviewer Role = "interviewer"
)

// Level is the seniority the mock interview targets.
type Level string

const (
	LevelEntry  Level = "Entry-Level"
	LevelMid    Level = "Mid-Level"
	LevelSenior Level = "Senior"
	LevelStaff  Level = "Staff"
)

// NormalizeLevel maps free-form client input onto a known Level. Unknown
// values fall back to Mid-Level rather than failing the session start.
func NormalizeLevel(raw string) Level {
	switch {
	case containsFold(raw, "entry"), containsFold(raw, "junior"), containsFold(raw, "intern"):
		return LevelEntry
	case containsFold(raw, "staff"), containsFold(raw, "principal"), containsFold(raw, "lead"):
		return LevelStaff
	case containsFold(raw, "senior"):
		return LevelSenior
	default:
		return LevelMid
	}
}

// Session is one mock-interview conversation owned by a single gateway
// connection. History is append-only for the session's lifetime.
type Session struct {
	ID         string    `json:"id"`
	TargetRole string    `json:"targetRole"`
	Level      Level     `json:"level"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Message is one turn. Immutable once appended.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// TranscriptFragment is a piece of speech-to-text output. Fragments are
// relayed, never stored; a final fragment closes the candidate's utterance.
type TranscriptFragment struct {
	SessionID  string    `json:"sessionId"`
	Text       string    `json:"text"`
	IsFinal    bool      `json:"isFinal"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"createdAt"`
}
