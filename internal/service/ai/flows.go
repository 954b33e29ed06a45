package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	generatemodel "github.com/ZaidMomin2003/talxify/backend/internal/model/generate"
)

// GenerateResume builds a polished structured resume from candidate facts.
func (s *Service) GenerateResume(ctx context.Context, req *generatemodel.ResumeRequest) (*generatemodel.Resume, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.TargetRole) == "" {
		return nil, fmt.Errorf("resume request needs a name and a target role")
	}

	facts, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resume facts: %w", err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(`You are a professional resume writer. Given candidate facts as JSON, produce a polished resume as JSON with this exact shape:
{"name": string, "headline": string, "summary": string, "experience": [{"title": string, "company": string, "highlights": [string]}], "skills": [string], "education": [string]}
Rewrite experience entries as achievement-oriented highlights. Reply with the JSON only, inside a fenced code block.`),
		schema.UserMessage(string(facts)),
	}

	response, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate resume: %w", err)
	}

	raw, err := ExtractJSONBlock(response.Content)
	if err != nil {
		return nil, fmt.Errorf("resume response is not valid JSON: %w", err)
	}

	var resume generatemodel.Resume
	if err := json.Unmarshal([]byte(raw), &resume); err != nil {
		return nil, fmt.Errorf("failed to decode resume JSON: %w", err)
	}
	if resume.Name == "" {
		resume.Name = req.Name
	}
	return &resume, nil
}

const maxQuestionCount = 10

// GenerateQuestions builds a coding drill set for a topic and difficulty.
func (s *Service) GenerateQuestions(ctx context.Context, req *generatemodel.QuestionsRequest) ([]generatemodel.CodingQuestion, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("questions request needs a topic")
	}

	count := req.Count
	if count <= 0 {
		count = 3
	}
	if count > maxQuestionCount {
		count = maxQuestionCount
	}

	difficulty := strings.ToLower(strings.TrimSpace(req.Difficulty))
	switch difficulty {
	case "easy", "medium", "hard":
	default:
		difficulty = "medium"
	}

	prompt := fmt.Sprintf(`Generate %d %s coding interview questions about %s. Reply with JSON only, inside a fenced code block, as an array with this exact item shape:
{"title": string, "prompt": string, "difficulty": string, "hints": [string], "sampleInput": string, "sampleOutput": string}`,
		count, difficulty, req.Topic)

	messages := []*schema.Message{
		schema.SystemMessage("You are a coding interview question author. You respond only with JSON."),
		schema.UserMessage(prompt),
	}

	response, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	raw, err := ExtractJSONBlock(response.Content)
	if err != nil {
		return nil, fmt.Errorf("questions response is not valid JSON: %w", err)
	}

	var questions []generatemodel.CodingQuestion
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions JSON: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("model returned no questions")
	}
	return questions, nil
}

// ExtractJSONBlock pulls the JSON document out of a model reply. Models
// usually honor the fenced-code-block instruction but sometimes return bare
// JSON or wrap it in prose, so fall back to scanning for the outermost
// object or array.
func ExtractJSONBlock(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("empty model reply")
	}

	if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			if candidate := strings.TrimSpace(rest[:end]); json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
	}

	if json.Valid([]byte(content)) {
		return content, nil
	}

	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(content, pair[0])
		end := strings.LastIndex(content, pair[1])
		if start >= 0 && end > start {
			if candidate := content[start : end+1]; json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
	}

	return "", fmt.Errorf("no JSON document found in model reply")
}
