package readiness

import (
	"errors"
	"testing"
	"time"
)

type fakeStatus struct {
	outputs []string
	errs    []error
	calls   int
}

func (f *fakeStatus) next() (string, error) {
	i := f.calls
	f.calls++
	var out string
	if i < len(f.outputs) {
		out = f.outputs[i]
	} else if len(f.outputs) > 0 {
		out = f.outputs[len(f.outputs)-1]
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return out, err
}

type fakeSleeper struct {
	sleeps []time.Duration
}

func (f *fakeSleeper) sleep(d time.Duration) {
	f.sleeps = append(f.sleeps, d)
}

func testPolicy(maxAttempts int, sleeper *fakeSleeper) Policy {
	return Policy{MaxAttempts: maxAttempts, Interval: time.Second, Sleep: sleeper.sleep}
}

func TestWaitFindsTokenOnFirstAttempt(t *testing.T) {
	status := &fakeStatus{outputs: []string{"http://localhost:5000/?token=abc123 :: /home/user"}}
	sleeper := &fakeSleeper{}

	p := Poller{Port: 5000, SessionName: "jupyter", Policy: testPolicy(90, sleeper)}
	ep, found := p.Wait(status.next)
	if !found {
		t.Fatalf("expected match, got none")
	}
	if ep.Token != "abc123" {
		t.Fatalf("token = %q, want %q", ep.Token, "abc123")
	}
	if ep.StatusLine != "http://localhost:5000/?token=abc123 :: /home/user" {
		t.Fatalf("unexpected status line %q", ep.StatusLine)
	}
	if status.calls != 1 {
		t.Fatalf("status calls = %d, want 1", status.calls)
	}
	if len(sleeper.sleeps) != 0 {
		t.Fatalf("expected no sleeps on immediate match, got %d", len(sleeper.sleeps))
	}

	url, ok := ep.BrowserURL()
	if !ok || url != "http://localhost:5000/?token=abc123" {
		t.Fatalf("browser url = %q ok=%v", url, ok)
	}
}

func TestWaitIgnoresOtherPorts(t *testing.T) {
	status := &fakeStatus{outputs: []string{"http://localhost:6000/?token=xyz"}}
	sleeper := &fakeSleeper{}

	p := Poller{Port: 5000, SessionName: "jupyter", Policy: testPolicy(5, sleeper)}
	ep, found := p.Wait(status.next)
	if found {
		t.Fatalf("expected no match, got %+v", ep)
	}
	if ep.Token != "" || ep.StatusLine != "" {
		t.Fatalf("exhausted result must be empty, got %+v", ep)
	}
	if status.calls != 5 {
		t.Fatalf("status calls = %d, want 5", status.calls)
	}
	if len(sleeper.sleeps) != 4 {
		t.Fatalf("sleeps = %d, want 4 (no sleep after final attempt)", len(sleeper.sleeps))
	}
}

func TestWaitMatchWithoutToken(t *testing.T) {
	status := &fakeStatus{outputs: []string{"http://localhost:5000/ :: /home/user"}}
	sleeper := &fakeSleeper{}

	p := Poller{Port: 5000, SessionName: "jupyter", Policy: testPolicy(5, sleeper)}
	ep, found := p.Wait(status.next)
	if !found {
		t.Fatalf("expected match")
	}
	if ep.Token != "" {
		t.Fatalf("token must be absent, got %q", ep.Token)
	}
	if _, ok := ep.BrowserURL(); ok {
		t.Fatalf("browser url must be unavailable without token")
	}
}

func TestWaitEmptyOutputExhaustsBound(t *testing.T) {
	status := &fakeStatus{outputs: []string{""}}
	sleeper := &fakeSleeper{}

	p := Poller{Port: 5000, SessionName: "jupyter", Policy: testPolicy(3, sleeper)}
	if _, found := p.Wait(status.next); found {
		t.Fatalf("expected exhaustion on empty output")
	}
	if status.calls != 3 {
		t.Fatalf("status calls = %d, want 3", status.calls)
	}
}

func TestWaitFirstMatchingLineWins(t *testing.T) {
	out := "http://localhost:5000/?token=first\nhttp://localhost:5000/?token=second\n"
	status := &fakeStatus{outputs: []string{out}}
	sleeper := &fakeSleeper{}

	p := Poller{Port: 5000, SessionName: "jupyter", Policy: testPolicy(5, sleeper)}
	ep, found := p.Wait(status.next)
	if !found || ep.Token != "first" {
		t.Fatalf("expected first line token, got found=%v token=%q", found, ep.Token)
	}
}

func TestWaitMatchOnLaterAttemptStopsEarly(t *testing.T) {
	status := &fakeStatus{outputs: []string{"", "", "http://localhost:5000/?token=late"}}
	sleeper := &fakeSleeper{}

	p := Poller{Port: 5000, SessionName: "jupyter", Policy: testPolicy(90, sleeper)}
	ep, found := p.Wait(status.next)
	if !found || ep.Token != "late" {
		t.Fatalf("expected match on third attempt, got found=%v token=%q", found, ep.Token)
	}
	if status.calls != 3 {
		t.Fatalf("status calls = %d, want 3", status.calls)
	}
	if len(sleeper.sleeps) != 2 {
		t.Fatalf("sleeps = %d, want 2", len(sleeper.sleeps))
	}
}

func TestWaitStatusErrorCountsAsAttempt(t *testing.T) {
	status := &fakeStatus{
		outputs: []string{"", "http://localhost:5000/?token=ok"},
		errs:    []error{errors.New("jupyter: command not found")},
	}
	sleeper := &fakeSleeper{}

	p := Poller{Port: 5000, SessionName: "jupyter", Policy: testPolicy(5, sleeper)}
	ep, found := p.Wait(status.next)
	if !found || ep.Token != "ok" {
		t.Fatalf("expected recovery after failed status command, got found=%v token=%q", found, ep.Token)
	}
}

func TestWaitIsIdempotentForFixedOutput(t *testing.T) {
	const out = "http://localhost:5000/?token=stable :: /srv"
	sleeper := &fakeSleeper{}
	p := Poller{Port: 5000, SessionName: "jupyter", Policy: testPolicy(5, sleeper)}

	first, foundFirst := p.Wait(func() (string, error) { return out, nil })
	second, foundSecond := p.Wait(func() (string, error) { return out, nil })
	if !foundFirst || !foundSecond {
		t.Fatalf("expected both waits to match")
	}
	if first != second {
		t.Fatalf("results differ: %+v vs %+v", first, second)
	}
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"http://localhost:5000/?token=abc123 :: /home", "abc123"},
		{"http://localhost:5000/?token=abc123", "abc123"},
		{"http://localhost:5000/", ""},
		{"", ""},
		{"token= trailing", ""},
	}
	for _, tc := range cases {
		if got := ExtractToken(tc.line); got != tc.want {
			t.Fatalf("ExtractToken(%q) = %q, want %q", tc.line, got, tc.want)
		}
	}
}
