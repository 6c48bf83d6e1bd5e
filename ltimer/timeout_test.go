package ltimer

import (
	"math"
	"testing"

	"timerhal-go/errcode"
)

func TestDeadlineFor(t *testing.T) {
	cases := []struct {
		name     string
		k        Kind
		ns, now  uint64
		deadline uint64
		period   uint64
	}{
		{"relative", Relative, 100, 50, 150, 0},
		{"relative from zero", Relative, 0, 50, 50, 0},
		{"absolute", Absolute, 100, 50, 100, 0},
		{"absolute in past kept verbatim", Absolute, 10, 50, 10, 0},
		{"periodic", Periodic, 100, 50, 150, 100},
		{"relative saturates", Relative, math.MaxUint64, 10, math.MaxUint64, 0},
	}
	for _, c := range cases {
		deadline, period, err := deadlineFor(c.k, c.ns, c.now)
		if err != nil {
			t.Errorf("%s: err = %v", c.name, err)
			continue
		}
		if deadline != c.deadline || period != c.period {
			t.Errorf("%s: got (%d, %d), want (%d, %d)", c.name, deadline, period, c.deadline, c.period)
		}
	}
}

func TestDeadlineForBadKind(t *testing.T) {
	_, _, err := deadlineFor(Kind(42), 1, 1)
	if errcode.Of(err) != errcode.InvalidArgument {
		t.Fatalf("deadlineFor(bad kind) = %v, want invalid_argument", err)
	}
}

func TestDescriptionAccessors(t *testing.T) {
	d := Description{
		IRQs:    []IRQ{{Number: 42}, {Number: 46}},
		Regions: []MemRegion{{Addr: 0x10020000, Size: 0x1000}},
	}
	if d.IRQCount() != 2 || d.RegionCount() != 1 {
		t.Fatalf("counts = %d/%d", d.IRQCount(), d.RegionCount())
	}
	if d.NthIRQ(1).Number != 46 {
		t.Fatalf("NthIRQ(1) = %v", d.NthIRQ(1))
	}
	if d.NthRegion(0).Addr != 0x10020000 {
		t.Fatalf("NthRegion(0) = %v", d.NthRegion(0))
	}

	defer func() {
		if recover() == nil {
			t.Fatal("out-of-range index did not panic")
		}
	}()
	d.NthIRQ(2)
}

func TestKindString(t *testing.T) {
	if Relative.String() != "relative" || Absolute.String() != "absolute" || Periodic.String() != "periodic" {
		t.Fatal("kind names changed")
	}
	if Kind(9).String() != "kind(9)" {
		t.Fatalf("unknown kind = %q", Kind(9).String())
	}
}
