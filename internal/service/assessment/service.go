package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/ZaidMomin2003/talxify/backend/internal/analysis/review"
	"github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
	"github.com/ZaidMomin2003/talxify/backend/internal/observability/logging"
)

// Config controls the assessment service.
type Config struct {
	Enabled         bool
	TranscriptLimit int
}

// Service produces a structured review of a finished interview. It runs a
// model-backed reviewer when a chat model is available and falls back to a
// heuristic analyzer otherwise.
type Service struct {
	enabled         bool
	reviewer        compose.Runnable[map[string]any, *schema.Message]
	transcriptLimit int
	log             zerolog.Logger
}

// NewService creates the assessment service. chatModel may reuse the
// conversation model instance; pass nil to run heuristic-only.
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config) (*Service, error) {
	transcriptLimit := cfg.TranscriptLimit
	if transcriptLimit <= 0 {
		transcriptLimit = 40
	}

	svc := &Service{
		enabled:         cfg.Enabled && chatModel != nil,
		transcriptLimit: transcriptLimit,
		log:             logging.WithComponent("assessment"),
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(reviewerSystemPrompt),
		schema.UserMessage(reviewerUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reviewer chain: %w", err)
	}

	svc.reviewer = runnable
	return svc, nil
}

// Enabled reports whether the model-backed reviewer is active.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.reviewer != nil
}

// Assess reviews a finished interview transcript. It never fails: any model
// problem degrades to the heuristic verdict.
func (s *Service) Assess(ctx context.Context, session interview.Session, transcript []interview.Message) *interview.Assessment {
	answers := candidateAnswers(transcript)
	if len(answers) == 0 {
		return nil
	}

	if !s.Enabled() {
		return s.heuristicAssessment(answers)
	}

	input := map[string]any{
		"role":       session.TargetRole,
		"level":      string(session.Level),
		"transcript": formatTranscript(transcript, s.transcriptLimit),
	}

	msg, err := s.reviewer.Invoke(ctx, input)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID).Msg("reviewer invoke failed, using heuristic")
		return s.heuristicAssessment(answers)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.heuristicAssessment(answers)
	}

	assessment, err := parseReviewerOutput(msg.Content)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID).Msg("reviewer output parse failed, using heuristic")
		return s.heuristicAssessment(answers)
	}
	return assessment
}

func (s *Service) heuristicAssessment(answers []string) *interview.Assessment {
	verdict := review.Analyze(answers)
	return &interview.Assessment{
		Summary:      fmt.Sprintf("Heuristic review of %d answer(s).", len(answers)),
		Strengths:    verdict.Strengths,
		Improvements: verdict.Improvements,
		Score:        verdict.Score,
	}
}

func candidateAnswers(transcript []interview.Message) []string {
	var answers []string
	for _, msg := range transcript {
		if msg.Role != interview.RoleCandidate {
			continue
		}
		if content := strings.TrimSpace(msg.Content); content != "" {
			answers = append(answers, content)
		}
	}
	return answers
}

func formatTranscript(transcript []interview.Message, limit int) string {
	if limit < 1 {
		limit = 1
	}
	start := len(transcript) - limit
	if start < 0 {
		start = 0
	}

	var builder strings.Builder
	for i := start; i < len(transcript); i++ {
		msg := transcript[i]
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		role := "Candidate"
		if msg.Role == interview.RoleInterviewer {
			role = "Interviewer"
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(role)
		builder.WriteString(": ")
		builder.WriteString(content)
	}
	if builder.Len() == 0 {
		return "(empty transcript)"
	}
	return builder.String()
}

func parseReviewerOutput(content string) (*interview.Assessment, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	assessment := &interview.Assessment{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), assessment); err != nil {
		return nil, err
	}

	if assessment.Score < 0 {
		assessment.Score = 0
	}
	if assessment.Score > 100 {
		assessment.Score = 100
	}
	if strings.TrimSpace(assessment.Summary) == "" {
		return nil, fmt.Errorf("missing summary")
	}
	return assessment, nil
}

const reviewerSystemPrompt = "You are a technical interview reviewer. Read the interview transcript and assess the candidate's performance for the stated role and level. Return exactly one JSON object with fields: summary (two or three sentences), strengths (array of strings), improvements (array of strings), score (integer 0-100). No other text."

const reviewerUserPrompt = "Target role: {role}\nSeniority level: {level}\n\nTranscript:\n{transcript}\n\nReturn the JSON assessment."
