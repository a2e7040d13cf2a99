package core

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func startTestBus(t *testing.T) *JobBus {
	t.Helper()
	cfg := &BusConfig{
		Enabled:       true,
		Embedded:      true,
		Port:          -1,
		SubjectPrefix: "flowprep.test",
		DataDir:       t.TempDir(),
	}
	bus, err := NewJobBus(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewJobBus: %v", err)
	}
	t.Cleanup(func() { bus.Close() })
	return bus
}

func TestJobBus_PublishAndSubscribe(t *testing.T) {
	bus := startTestBus(t)

	got := make(chan *JobEvent, 1)
	if _, err := bus.Subscribe("flowprep.test.jobs.>", func(e *JobEvent) { got <- e }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	event := &JobEvent{
		RunID:  "run-1",
		Input:  "a.csv",
		Status: JobSucceeded,
		Rows:   10,
		Normal: 7,
		Attack: 3,
	}
	if err := bus.PublishJob(event); err != nil {
		t.Fatalf("PublishJob: %v", err)
	}

	select {
	case e := <-got:
		if e.RunID != "run-1" || e.Rows != 10 || e.Status != JobSucceeded {
			t.Errorf("received %+v", e)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job event")
	}

	published, failed := bus.Counts()
	if published != 1 || failed != 0 {
		t.Errorf("counts = %d/%d, want 1/0", published, failed)
	}
}

func TestJobBus_Subject(t *testing.T) {
	bus := &JobBus{prefix: "flowprep"}
	if got := bus.Subject(JobFailed); got != "flowprep.jobs.failed" {
		t.Errorf("Subject = %q", got)
	}
}

func TestJobBus_NilIsNoop(t *testing.T) {
	var bus *JobBus
	var p Publisher = bus
	if err := p.PublishJob(&JobEvent{}); err != nil {
		t.Errorf("nil bus publish: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("nil bus close: %v", err)
	}
}

func TestStreamName(t *testing.T) {
	if got := streamName("flowprep.test-a"); got != "FLOWPREP_TEST_A_JOBS" {
		t.Errorf("streamName = %q", got)
	}
}

func TestJobEvent_MarshalRoundTrip(t *testing.T) {
	e := &JobEvent{RunID: "r", Status: JobFailed, Error: "row 3: bad"}
	data, err := e.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"status":"failed"`) {
		t.Errorf("json = %s", data)
	}
	back, err := UnmarshalJobEvent(data)
	if err != nil {
		t.Fatal(err)
	}
	if back.Error != e.Error || back.Status != e.Status {
		t.Errorf("round trip = %+v", back)
	}
	if _, err := UnmarshalJobEvent([]byte("{")); err == nil {
		t.Error("expected error for truncated JSON")
	}
}
