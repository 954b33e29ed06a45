package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	generatemodel "github.com/ZaidMomin2003/talxify/backend/internal/model/generate"
)

type fakeGenerator struct {
	resumeReq    *generatemodel.ResumeRequest
	questionsReq *generatemodel.QuestionsRequest
	fail         bool
}

func (f *fakeGenerator) GenerateResume(ctx context.Context, req *generatemodel.ResumeRequest) (*generatemodel.Resume, error) {
	if f.fail {
		return nil, errors.New("model unavailable")
	}
	f.resumeReq = req
	return &generatemodel.Resume{Name: req.Name, Headline: req.TargetRole}, nil
}

func (f *fakeGenerator) GenerateQuestions(ctx context.Context, req *generatemodel.QuestionsRequest) ([]generatemodel.CodingQuestion, error) {
	if f.fail {
		return nil, errors.New("model unavailable")
	}
	f.questionsReq = req
	return []generatemodel.CodingQuestion{{Title: "Two Sum", Difficulty: "easy"}}, nil
}

func newTestRouter(gen Generator) chi.Router {
	r := chi.NewRouter()
	New(gen).RegisterRoutes(r)
	return r
}

func TestGenerateResume(t *testing.T) {
	fake := &fakeGenerator{}
	r := newTestRouter(fake)

	payload, _ := json.Marshal(map[string]any{
		"name":       "Sam Rivera",
		"targetRole": "backend engineer",
		"skills":     []string{"go", "postgres"},
	})
	req := httptest.NewRequest(http.MethodPost, "/generate/resume", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if fake.resumeReq == nil || fake.resumeReq.Name != "Sam Rivera" {
		t.Fatalf("generator did not receive request: %+v", fake.resumeReq)
	}

	var resume generatemodel.Resume
	if err := json.NewDecoder(rr.Body).Decode(&resume); err != nil {
		t.Fatalf("decode response err: %v", err)
	}
	if resume.Headline != "backend engineer" {
		t.Fatalf("unexpected headline: %s", resume.Headline)
	}
}

func TestGenerateResumeRequiresName(t *testing.T) {
	r := newTestRouter(&fakeGenerator{})

	payload := []byte(`{"targetRole":"backend engineer"}`)
	req := httptest.NewRequest(http.MethodPost, "/generate/resume", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 status, got %d", rr.Code)
	}
}

func TestGenerateQuestions(t *testing.T) {
	fake := &fakeGenerator{}
	r := newTestRouter(fake)

	payload := []byte(`{"topic":"graphs","difficulty":"medium","count":2}`)
	req := httptest.NewRequest(http.MethodPost, "/generate/questions", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if fake.questionsReq == nil || fake.questionsReq.Count != 2 {
		t.Fatalf("generator did not receive request: %+v", fake.questionsReq)
	}

	var body struct {
		Questions []generatemodel.CodingQuestion `json:"questions"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response err: %v", err)
	}
	if len(body.Questions) != 1 || body.Questions[0].Title != "Two Sum" {
		t.Fatalf("unexpected questions: %+v", body.Questions)
	}
}

func TestGenerateQuestionsFailure(t *testing.T) {
	r := newTestRouter(&fakeGenerator{fail: true})

	payload := []byte(`{"topic":"graphs"}`)
	req := httptest.NewRequest(http.MethodPost, "/generate/questions", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", rr.Code)
	}
}
