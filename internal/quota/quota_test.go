package quota

import (
	"testing"
	"time"
)

func TestCheck_AtCeilingRejects(t *testing.T) {
	max := 10
	d := Check(10, &max)
	if d.Allowed {
		t.Fatalf("10 of 10 must be rejected")
	}
	if d.Current != 10 || d.Max != 10 {
		t.Fatalf("decision must carry counts, got current=%d max=%d", d.Current, d.Max)
	}
}

func TestCheck_BelowCeilingAllows(t *testing.T) {
	max := 10
	d := Check(9, &max)
	if !d.Allowed {
		t.Fatalf("9 of 10 must pass")
	}
	if !d.Limited {
		t.Fatalf("a plan with a ceiling is limited")
	}
}

func TestCheck_NilCeilingUnlimited(t *testing.T) {
	d := Check(100000, nil)
	if !d.Allowed || d.Limited {
		t.Fatalf("nil ceiling must always pass, got %+v", d)
	}
}

func TestMonthRange(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	at := time.Date(2026, 12, 15, 13, 45, 0, 0, loc)
	start, end := MonthRange(at)

	if !start.Equal(time.Date(2026, 12, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected start %s", start)
	}
	if !end.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected end %s", end)
	}
}
