package api_test

import (
	"net/http"
	"testing"
)

type reportResponse struct {
	ID       int64   `json:"id"`
	PublicID string  `json:"public_id"`
	Priority float64 `json:"priority"`
	Status   string  `json:"status"`
}

func TestCreateReport(t *testing.T) {
	srv, _, cleanup := setupServer(t)
	defer cleanup()

	token := signupClient(t, srv, "alice@example.com", "Sirsa")

	resp := postJSON(t, srv.URL+"/v1/reports", token, map[string]any{
		"title":        "Deep pothole near the school",
		"description":  "Dangerous for two-wheelers",
		"problem_type": "pothole",
		"district":     "Sirsa",
		"longitude":    75.0250,
		"latitude":     29.5350,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create report status = %d", resp.StatusCode)
	}
	body := decode[reportResponse](t, resp)
	if body.ID <= 0 || body.PublicID == "" {
		t.Fatalf("unexpected response: %+v", body)
	}
	if body.Status != "pending" {
		t.Fatalf("expected pending status, got %q", body.Status)
	}
	// no other pending reports nearby: priority is the pure urgency share
	if body.Priority != 2.4 {
		t.Fatalf("expected priority 2.4 for an isolated pothole, got %v", body.Priority)
	}
}

func TestCreateReportValidation(t *testing.T) {
	srv, _, cleanup := setupServer(t)
	defer cleanup()

	token := signupClient(t, srv, "alice@example.com", "Sirsa")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{
			"problem_type": "pothole", "district": "Sirsa", "longitude": 75.0, "latitude": 29.5,
		}},
		{"latitude out of range", map[string]any{
			"title": "bad coords", "problem_type": "pothole", "district": "Sirsa",
			"longitude": 75.0, "latitude": 95.0,
		}},
		{"unknown field", map[string]any{
			"title": "extra", "problem_type": "pothole", "district": "Sirsa",
			"longitude": 75.0, "latitude": 29.5, "severity": "high",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/v1/reports", token, tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
		})
	}
}

func TestDensityRaisesPriority(t *testing.T) {
	srv, _, cleanup := setupServer(t)
	defer cleanup()

	token := signupClient(t, srv, "alice@example.com", "Sirsa")

	report := map[string]any{
		"title":        "Street light out",
		"problem_type": "street light",
		"district":     "Sirsa",
		"longitude":    75.0250,
		"latitude":     29.5350,
	}

	first := decode[reportResponse](t, postJSON(t, srv.URL+"/v1/reports", token, report))
	second := decode[reportResponse](t, postJSON(t, srv.URL+"/v1/reports", token, report))

	if second.Priority <= first.Priority {
		t.Fatalf("expected second report at the same spot to score higher: %v then %v",
			first.Priority, second.Priority)
	}
}

func TestListMyReports(t *testing.T) {
	srv, _, cleanup := setupServer(t)
	defer cleanup()

	alice := signupClient(t, srv, "alice@example.com", "Sirsa")
	bob := signupClient(t, srv, "bob@example.com", "Sirsa")

	for range 2 {
		resp := postJSON(t, srv.URL+"/v1/reports", alice, map[string]any{
			"title":        "Garbage pileup",
			"problem_type": "cleaning",
			"district":     "Sirsa",
			"longitude":    75.0,
			"latitude":     29.5,
		})
		resp.Body.Close()
	}

	type listResponse struct {
		Items []reportResponse `json:"items"`
	}

	got := decode[listResponse](t, getJSON(t, srv.URL+"/v1/reports", alice))
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 reports for alice, got %d", len(got.Items))
	}

	got = decode[listResponse](t, getJSON(t, srv.URL+"/v1/reports", bob))
	if len(got.Items) != 0 {
		t.Fatalf("expected no reports for bob, got %d", len(got.Items))
	}
}

func TestVerifyRequiresCompletedState(t *testing.T) {
	srv, _, cleanup := setupServer(t)
	defer cleanup()

	token := signupClient(t, srv, "alice@example.com", "Sirsa")

	created := decode[reportResponse](t, postJSON(t, srv.URL+"/v1/reports", token, map[string]any{
		"title":        "Water leak",
		"problem_type": "water supply",
		"district":     "Sirsa",
		"longitude":    75.0,
		"latitude":     29.5,
	}))

	// still pending, verification must be rejected
	resp := postJSON(t, srv.URL+"/v1/reports/"+itoa(created.ID)+"/verify", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("verify status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}
