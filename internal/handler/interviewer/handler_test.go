package interviewer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	interviewermodel "github.com/ZaidMomin2003/talxify/backend/internal/model/interviewer"
)

func newTestRouter() chi.Router {
	r := chi.NewRouter()
	New(interviewermodel.NewMemoryStore(interviewermodel.Seed())).RegisterRoutes(r)
	return r
}

func TestListInterviewers(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/interviewers", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	var profiles []interviewermodel.Profile
	if err := json.NewDecoder(rr.Body).Decode(&profiles); err != nil {
		t.Fatalf("decode response err: %v", err)
	}
	if len(profiles) == 0 {
		t.Fatal("expected seeded interviewers")
	}
}

func TestGetInterviewerNotFound(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/interviewers/nobody", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 status, got %d", rr.Code)
	}
}
