package generate

// ResumeRequest carries the candidate facts the resume builder works from.
type ResumeRequest struct {
	Name       string   `json:"name"`
	TargetRole string   `json:"targetRole"`
	Summary    string   `json:"summary,omitempty"`
	Experience []string `json:"experience,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	Education  []string `json:"education,omitempty"`
}

// Resume is the structured resume returned by the builder.
type Resume struct {
	Name       string             `json:"name"`
	Headline   string             `json:"headline"`
	Summary    string             `json:"summary"`
	Experience []ResumeExperience `json:"experience"`
	Skills     []string           `json:"skills"`
	Education  []string           `json:"education"`
}

// ResumeExperience is one polished work-history entry.
type ResumeExperience struct {
	Title      string   `json:"title"`
	Company    string   `json:"company,omitempty"`
	Highlights []string `json:"highlights"`
}

// QuestionsRequest asks for a coding drill set.
type QuestionsRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"` // easy, medium, hard
	Count      int    `json:"count"`
}

// CodingQuestion is one generated drill item.
type CodingQuestion struct {
	Title       string   `json:"title"`
	Prompt      string   `json:"prompt"`
	Difficulty  string   `json:"difficulty"`
	Hints       []string `json:"hints,omitempty"`
	SampleInput string   `json:"sampleInput,omitempty"`
	SampleOut   string   `json:"sampleOutput,omitempty"`
}
