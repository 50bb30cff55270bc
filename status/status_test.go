package status

import (
	"testing"
)

func TestName_String(t *testing.T) {
	testCases := []struct {
		name Name
		exp  string
	}{
		{PENDING, "PENDING"},
		{IN_PROGRESS, "IN_PROGRESS"},
		{SUCCEEDED, "SUCCEEDED"},
		{FAILED, "FAILED"},
		{STOPPED, "STOPPED"},
		{Name(42), "UNKNOWN(42)"},
	}
	for _, tc := range testCases {
		if tc.name.String() != tc.exp {
			t.Fatalf("got %q; expected %q", tc.name.String(), tc.exp)
		}
	}
}

func TestName_MarshalJSON(t *testing.T) {
	b, err := SUCCEEDED.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected err: %s", err)
	}
	if string(b) != `"SUCCEEDED"` {
		t.Fatalf("got %q; expected %q", string(b), `"SUCCEEDED"`)
	}
}

func TestName_Predicates(t *testing.T) {
	testCases := []struct {
		name                          Name
		succeeded, failed, finished bool
	}{
		{PENDING, false, false, false},
		{IN_PROGRESS, false, false, false},
		{SUCCEEDED, true, false, true},
		{FAILED, false, true, true},
		{STOPPED, false, true, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name.String(), func(t *testing.T) {
			if tc.name.IsSucceeded() != tc.succeeded {
				t.Fatalf("IsSucceeded got %v; expected %v", tc.name.IsSucceeded(), tc.succeeded)
			}
			if tc.name.IsFailed() != tc.failed {
				t.Fatalf("IsFailed got %v; expected %v", tc.name.IsFailed(), tc.failed)
			}
			if tc.name.IsFinished() != tc.finished {
				t.Fatalf("IsFinished got %v; expected %v", tc.name.IsFinished(), tc.finished)
			}
		})
	}
}

func TestFromJob(t *testing.T) {
	testCases := []struct {
		title string
		exp   Name
	}{
		{"InProgress", IN_PROGRESS},
		{"Completed", SUCCEEDED},
		{"Failed", FAILED},
		{"Stopping", IN_PROGRESS},
		{"Stopped", STOPPED},
	}
	for _, tc := range testCases {
		n, err := FromJob(tc.title)
		if err != nil {
			t.Fatalf("unexpected err: %s", err)
		}
		if n != tc.exp {
			t.Fatalf("got %s; expected %s", n, tc.exp)
		}
	}
	if _, err := FromJob("Provisioning"); err == nil {
		t.Fatalf("expected to get err")
	}
}

func TestFromEndpoint(t *testing.T) {
	testCases := []struct {
		title string
		exp   Name
	}{
		{"Creating", IN_PROGRESS},
		{"InService", SUCCEEDED},
		{"Failed", FAILED},
		{"OutOfService", FAILED},
		{"Deleting", IN_PROGRESS},
	}
	for _, tc := range testCases {
		n, err := FromEndpoint(tc.title)
		if err != nil {
			t.Fatalf("unexpected err: %s", err)
		}
		if n != tc.exp {
			t.Fatalf("got %s; expected %s", n, tc.exp)
		}
	}
	if _, err := FromEndpoint("Ready"); err == nil {
		t.Fatalf("expected to get err")
	}
}
