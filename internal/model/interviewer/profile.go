package interviewer

// Profile captures the interviewer persona used to flavor prompts and pick a
// synthesis voice.
type Profile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Style       string   `json:"style"`
	VoiceID     string   `json:"voiceId,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
}

// Seed provides the default interviewer roster.
func Seed() []Profile {
	return []Profile{
		{
			ID:          "alex",
			Name:        "Alex",
			Style:       "friendly but thorough; asks one question at a time and follows up on vague answers",
			VoiceID:     "en_male_glen_conversation",
			Specialties: []string{"backend", "api", "database", "distributed"},
		},
		{
			ID:          "priya",
			Name:        "Priya",
			Style:       "calm and structured; probes trade-offs and asks for concrete numbers",
			VoiceID:     "en_female_amy_conversation",
			Specialties: []string{"frontend", "react", "web", "mobile"},
		},
		{
			ID:          "marcus",
			Name:        "Marcus",
			Style:       "direct and practical; anchors every question in a production incident",
			VoiceID:     "en_male_corey_conversation",
			Specialties: []string{"devops", "infrastructure", "sre", "platform", "cloud"},
		},
	}
}
