package ledger

import (
	"testing"

	"github.com/MikeSquared-Agency/parley/internal/utterance"
)

func TestLedger_Credit(t *testing.T) {
	l := New()
	l.Credit(utterance.Utterance{DurationMs: 1200}, true)
	l.Credit(utterance.Utterance{DurationMs: 300}, false)
	l.Credit(utterance.Utterance{DurationMs: 800}, true)

	got := l.Snapshot()
	if got.ManagerMs != 2000 {
		t.Errorf("expected manager 2000, got %f", got.ManagerMs)
	}
	if got.MemberMs != 300 {
		t.Errorf("expected member 300, got %f", got.MemberMs)
	}
	if got.TotalMs() != 2300 {
		t.Errorf("expected total 2300, got %f", got.TotalMs())
	}
}

func TestLedger_Freeze(t *testing.T) {
	l := New()
	l.Credit(utterance.Utterance{DurationMs: 500}, true)
	l.Freeze()

	if l.Credit(utterance.Utterance{DurationMs: 500}, false) {
		t.Error("expected frozen ledger to refuse credit")
	}
	if got := l.Snapshot(); got.ManagerMs != 500 || got.MemberMs != 0 {
		t.Errorf("frozen ledger changed: %+v", got)
	}
	if !l.Frozen() {
		t.Error("expected Frozen() to be true")
	}
}

func TestLedger_Reset(t *testing.T) {
	l := New()
	l.Credit(utterance.Utterance{DurationMs: 500}, true)
	l.Credit(utterance.Utterance{DurationMs: 700}, false)
	l.Freeze()

	for i := 0; i < 2; i++ {
		l.Reset()
		if got := l.Snapshot(); got != (Split{}) {
			t.Errorf("reset %d: expected zero split, got %+v", i+1, got)
		}
		if l.Frozen() {
			t.Errorf("reset %d: expected ledger to accept credits", i+1)
		}
	}
}
