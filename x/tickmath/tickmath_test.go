package tickmath

import (
	"math"
	"testing"

	"periph.io/x/conn/v3/physic"
)

func TestTicksToNs(t *testing.T) {
	cases := []struct {
		ticks uint64
		f     physic.Frequency
		want  uint64
	}{
		{0, physic.MegaHertz, 0},
		{1, physic.MegaHertz, 1000},
		{24_000_000, 24 * physic.MegaHertz, 1_000_000_000},
		{3, 2 * physic.Hertz, 1_500_000_000},
		// a century of 24 MHz ticks needs the 128-bit intermediate
		{75_700_000_000_000_000, 24 * physic.MegaHertz, 3_154_166_666_666_666_666},
		// quotient beyond 64 bits saturates
		{math.MaxUint64, physic.Hertz, math.MaxUint64},
		// unusable frequency saturates rather than dividing by zero
		{1, 0, math.MaxUint64},
	}
	for _, c := range cases {
		if got := TicksToNs(c.ticks, c.f); got != c.want {
			t.Errorf("TicksToNs(%d, %v) = %d, want %d", c.ticks, c.f, got, c.want)
		}
	}
}

func TestTicksToNsMonotone(t *testing.T) {
	prev := uint64(0)
	for ticks := uint64(0); ticks < 100_000; ticks += 777 {
		ns := TicksToNs(ticks, 32768*physic.Hertz)
		if ns < prev {
			t.Fatalf("TicksToNs regressed at %d ticks: %d < %d", ticks, ns, prev)
		}
		prev = ns
	}
}

func TestNsToTicksRoundsUp(t *testing.T) {
	cases := []struct {
		ns   uint64
		f    physic.Frequency
		want uint64
	}{
		{0, physic.MegaHertz, 0},
		{1000, physic.MegaHertz, 1}, // exact, no bump
		{1001, physic.MegaHertz, 2},
		{999, physic.MegaHertz, 1},
		// one 32.768 kHz tick is ~30517.58 ns
		{30517, 32768 * physic.Hertz, 1},
		{30518, 32768 * physic.Hertz, 2},
		{1, physic.Hertz, 1},
	}
	for _, c := range cases {
		if got := NsToTicks(c.ns, c.f); got != c.want {
			t.Errorf("NsToTicks(%d, %v) = %d, want %d", c.ns, c.f, got, c.want)
		}
	}
}

func TestHzAndPeriod(t *testing.T) {
	if got := Hz(physic.MegaHertz); got != 1_000_000 {
		t.Fatalf("Hz(1MHz) = %d", got)
	}
	if got := Hz(500 * physic.MilliHertz); got != 0 {
		t.Fatalf("Hz(0.5Hz) = %d, want 0", got)
	}
	if got := PeriodNs(physic.MegaHertz); got != 1000 {
		t.Fatalf("PeriodNs(1MHz) = %d, want 1000", got)
	}
	if got := PeriodNs(0); got != 0 {
		t.Fatalf("PeriodNs(0) = %d, want 0", got)
	}
}

func TestExactPeriodNs(t *testing.T) {
	cases := []struct {
		f    physic.Frequency
		want uint64
	}{
		{physic.MegaHertz, 1000},
		{physic.GigaHertz, 1},
		{500 * physic.MegaHertz >> 6, 128}, // hifive default tick
		{24 * physic.MegaHertz, 0},         // 41.67ns, not whole
		{3 * physic.Hertz, 0},
		{0, 0},
	}
	for _, c := range cases {
		if got := ExactPeriodNs(c.f); got != c.want {
			t.Errorf("ExactPeriodNs(%v) = %d, want %d", c.f, got, c.want)
		}
	}
}

func TestSatAdd(t *testing.T) {
	if got := SatAdd(1, 2); got != 3 {
		t.Fatalf("SatAdd(1,2) = %d", got)
	}
	if got := SatAdd(math.MaxUint64-1, 5); got != math.MaxUint64 {
		t.Fatalf("SatAdd overflow = %d, want MaxUint64", got)
	}
}
