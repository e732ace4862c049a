package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"splitrender/jobs"
	"splitrender/models"
	"splitrender/pipeline"
)

type stubProber struct{}

func (stubProber) Probe(ctx context.Context, path string) (models.MediaMetadata, error) {
	return models.MediaMetadata{Duration: 10, Width: 1280, Height: 720, FrameRate: 30, Codec: "h264"}, nil
}

type stubEngine struct{}

func (stubEngine) Run(ctx context.Context, req pipeline.Request, hooks pipeline.Hooks) (pipeline.Result, error) {
	hooks.OnPhase(pipeline.PhaseParallel)
	hooks.OnPhase(pipeline.PhaseMerging)
	return pipeline.Result{Workers: req.Workers, Seconds: 1}, os.WriteFile(req.Output, []byte("out"), 0644)
}

func newTestServer(t *testing.T) (*httptest.Server, *jobs.Manager, string) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "input.mp4")
	os.WriteFile(input, []byte("src"), 0644)

	mgr, err := jobs.NewManager(jobs.Deps{
		Prober: stubProber{},
		Engine: stubEngine{},
		Logger: zerolog.Nop(),
	}, jobs.Options{OutputDir: dir, TempDir: filepath.Join(dir, "tmp"), DefaultWorkers: 2})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	srv := httptest.NewServer(NewRouter(mgr, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv, mgr, input
}

func postJob(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/jobs", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /jobs failed: %v", err)
	}
	return resp
}

func TestCreateAndGetJob(t *testing.T) {
	srv, mgr, input := newTestServer(t)

	resp := postJob(t, srv, `{"input_path": "`+input+`", "workers": 3}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	var created jobs.Job
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("Invalid job JSON: %v", err)
	}
	if created.Status != jobs.StatusQueued || created.Workers != 3 {
		t.Errorf("Unexpected job: %+v", created)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := mgr.Wait(ctx, created.ID); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	get, err := http.Get(srv.URL + "/jobs/" + created.ID)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer get.Body.Close()

	var polled jobs.Job
	json.NewDecoder(get.Body).Decode(&polled)
	if polled.Status != jobs.StatusCompleted || polled.Progress != 100 {
		t.Errorf("Expected completed job, got %+v", polled)
	}

	list, _ := http.Get(srv.URL + "/jobs")
	defer list.Body.Close()
	var all []jobs.Job
	json.NewDecoder(list.Body).Decode(&all)
	if len(all) != 1 || all[0].ID != created.ID {
		t.Errorf("Expected the job in the list, got %v", all)
	}
}

func TestCreateJob_BadRequests(t *testing.T) {
	srv, _, input := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"input_path": `},
		{"unknown field", `{"input_path": "` + input + `", "bogus": 1}`},
		{"missing input", `{}`},
		{"negative workers", `{"input_path": "` + input + `", "workers": -2}`},
		{"unavailable variant", `{"input_path": "` + input + `", "smart": true, "engine_version": "v2"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJob(t, srv, tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", resp.StatusCode)
			}
			var body map[string]string
			json.NewDecoder(resp.Body).Decode(&body)
			if body["error"] == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

func TestGetAndDeleteUnknownJob(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, _ := http.Get(srv.URL + "/jobs/deadbeef")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for GET, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/jobs/deadbeef", nil)
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for DELETE, got %d", resp.StatusCode)
	}
}

func TestDeleteJob(t *testing.T) {
	srv, mgr, input := newTestServer(t)
	job, err := mgr.Submit(jobs.SubmitRequest{Input: input})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mgr.Wait(ctx, job.ID)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/jobs/"+job.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if _, err := mgr.Get(job.ID); err == nil {
		t.Error("Expected job to be deleted")
	}
}

func TestHealthStatsAndMetrics(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, _ := http.Get(srv.URL + "/health")
	var health map[string]any
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health["status"] != "healthy" || health["v2_available"] != false {
		t.Errorf("Unexpected health payload: %v", health)
	}

	resp, _ = http.Get(srv.URL + "/stats")
	var stats map[string]any
	json.NewDecoder(resp.Body).Decode(&stats)
	resp.Body.Close()
	for _, key := range []string{"total_jobs", "success_rate", "avg_throughput_fps", "cpu_count", "variants"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("Expected %q in stats payload: %v", key, stats)
		}
	}

	resp, _ = http.Get(srv.URL + "/metrics")
	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	resp.Body.Close()
	if !strings.Contains(buf.String(), "splitrender_jobs_submitted_total") {
		t.Errorf("Expected prometheus metrics, got:\n%s", buf.String())
	}
}
