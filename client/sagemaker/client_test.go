package sagemaker

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/platformlab/sagerun/log"
	"github.com/platformlab/sagerun/remote"
)

func TestMain(m *testing.M) {
	// static credentials so the SDK signer has something to sign with
	os.Setenv("AWS_ACCESS_KEY_ID", "test")
	os.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	log.SuppressOutput(true)
	retCode := m.Run()
	log.SuppressOutput(false)
	os.Exit(retCode)
}

// target extracts the operation name from the X-Amz-Target header.
func target(req *http.Request) string {
	t := req.Header.Get("X-Amz-Target")
	if i := strings.Index(t, "."); i >= 0 {
		return t[i+1:]
	}
	return t
}

func readBody(t *testing.T, req *http.Request) map[string]interface{} {
	t.Helper()
	b, err := ioutil.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("unexpected err: %s", err)
	}
	body := make(map[string]interface{})
	if err := json.Unmarshal(b, &body); err != nil {
		t.Fatalf("cannot decode request body %q: %s", string(b), err)
	}
	return body
}

func respond(rw http.ResponseWriter, body string) {
	rw.Header().Set("Content-Type", "application/x-amz-json-1.1")
	rw.WriteHeader(http.StatusOK)
	rw.Write([]byte(body))
}

func respondErr(rw http.ResponseWriter, code, message string) {
	rw.Header().Set("Content-Type", "application/x-amz-json-1.1")
	rw.WriteHeader(http.StatusBadRequest)
	rw.Write([]byte(`{"__type":"` + code + `","message":"` + message + `"}`))
}

func fakeClient(t *testing.T, handler http.Handler) (remote.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{
		Region:       "us-east-1",
		RoleArn:      "arn:aws:iam::123456789012:role/test",
		Endpoint:     srv.URL,
		PollInterval: time.Millisecond * 10,
	})
	if err != nil {
		t.Fatalf("unexpected err: %s", err)
	}
	return c, srv
}

func TestNewClient_Fail(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatalf("expected to get error")
	}
}

func TestNewClient_DefaultPollInterval(t *testing.T) {
	c, err := NewClient(Config{Region: "us-east-1"})
	if err != nil {
		t.Fatalf("unexpected err: %s", err)
	}
	sc := c.(*client)
	if sc.pollInterval != defaultPollInterval {
		t.Fatalf("got poll interval %v; expected %v", sc.pollInterval, defaultPollInterval)
	}
}

func TestPing(t *testing.T) {
	c, _ := fakeClient(t, http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		if target(req) != "ListTrainingJobs" {
			t.Fatalf("unexpected target %q", target(req))
		}
		respond(rw, `{"TrainingJobSummaries":[]}`)
	}))
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected err: %s", err)
	}
}

func TestPing_Fail(t *testing.T) {
	c, _ := fakeClient(t, http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		respondErr(rw, "AccessDeniedException", "no")
	}))
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("expected to get error")
	}
}

func TestListTrainingJobs(t *testing.T) {
	c, _ := fakeClient(t, http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		respond(rw, `{"TrainingJobSummaries":[
			{"TrainingJobName":"train-1","TrainingJobStatus":"Completed"},
			{"TrainingJobName":"train-2","TrainingJobStatus":"InProgress"}
		]}`)
	}))
	jobs, err := c.ListTrainingJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %s", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs; expected 2", len(jobs))
	}
	if jobs[0].Name != "train-1" || !jobs[0].Status.IsSucceeded() {
		t.Fatalf("unexpected first job: %+v", jobs[0])
	}
	if jobs[1].Name != "train-2" || jobs[1].Status.IsFinished() {
		t.Fatalf("unexpected second job: %+v", jobs[1])
	}
}

func TestListEndpoints(t *testing.T) {
	c, _ := fakeClient(t, http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		if target(req) != "ListEndpoints" {
			t.Fatalf("unexpected target %q", target(req))
		}
		respond(rw, `{"Endpoints":[{"EndpointName":"endpoint-1","EndpointStatus":"InService"}]}`)
	}))
	endpoints, err := c.ListEndpoints(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %s", err)
	}
	if len(endpoints) != 1 {
		t.Fatalf("got %d endpoints; expected 1", len(endpoints))
	}
	if endpoints[0].Name != "endpoint-1" || !endpoints[0].Status.IsSucceeded() {
		t.Fatalf("unexpected endpoint: %+v", endpoints[0])
	}
}

func TestJobName(t *testing.T) {
	a := jobName("train")
	b := jobName("train")
	if !strings.HasPrefix(a, "train-") {
		t.Fatalf("got %q; expected train- prefix", a)
	}
	if a == b {
		t.Fatalf("expected unique names; got %q twice", a)
	}
}
