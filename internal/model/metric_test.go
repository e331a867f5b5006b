package model

import "testing"

func TestParseMetric(t *testing.T) {
	for _, m := range ChallengeMetrics {
		got, err := ParseMetric(string(m))
		if err != nil || got != m {
			t.Fatalf("ParseMetric(%q) = %q, %v", m, got, err)
		}
	}
	if _, err := ParseMetric("stars"); err == nil {
		t.Fatalf("stars is not a challenge metric")
	}
}

func TestChallengeStatusTerminal(t *testing.T) {
	if ChallengeStatusActive.IsTerminal() {
		t.Fatalf("active must not be terminal")
	}
	if !ChallengeStatusCompleted.IsTerminal() || !ChallengeStatusFailed.IsTerminal() {
		t.Fatalf("completed/failed must be terminal")
	}
}

func TestEnumScanRejectsUnknown(t *testing.T) {
	var s ChallengeStatus
	if err := s.Scan("archived"); err == nil {
		t.Fatalf("Scan(archived) should fail")
	}
	if err := s.Scan([]byte("completed")); err != nil || s != ChallengeStatusCompleted {
		t.Fatalf("Scan(completed) = %q, %v", s, err)
	}

	var typ ChallengeType
	if err := typ.Scan(nil); err == nil {
		t.Fatalf("Scan(nil) should fail")
	}
}

func TestMetricStatsRoundTripThroughDriver(t *testing.T) {
	in := MetricStats{Commits: 3, PRs: 1, Reviews: 0, Issues: 7}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	var out MetricStats
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out != in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestCountersStats(t *testing.T) {
	c := Counters{Commits: 10, PullRequests: 2, Reviews: 3, Issues: 4, Stars: 99, Contributions: 50}
	s := c.Stats()
	for _, m := range ChallengeMetrics {
		if s.Get(m) != c.Get(m) {
			t.Fatalf("metric %s: stats=%d counters=%d", m, s.Get(m), c.Get(m))
		}
	}
}
