package models

import (
	"math"
	"testing"
)

func TestClampAdd(t *testing.T) {
	deltas := []int{math.MinInt, -1000, -101, -100, -51, -1, 0, 1, 49, 50, 99, 100, 101, 1000, math.MaxInt}
	for v := StatMin; v <= StatMax; v++ {
		for _, d := range deltas {
			got := ClampAdd(v, d)
			if got < StatMin || got > StatMax {
				t.Fatalf("ClampAdd(%d, %d) = %d, out of range", v, d, got)
			}
			if d > -1000 && d < 1000 {
				if sum := v + d; sum >= StatMin && sum <= StatMax && got != sum {
					t.Fatalf("ClampAdd(%d, %d) = %d, want %d", v, d, got, sum)
				}
			}
		}
	}
}

func TestPlayerStatsApply(t *testing.T) {
	s := InitialStats
	if !s.Apply(StatStress, 95) || s.Stress != 100 {
		t.Errorf("stress = %d", s.Stress)
	}
	if !s.Apply(StatResources, -70) || s.Resources != 0 {
		t.Errorf("resources = %d", s.Resources)
	}
	before := s
	if s.Apply("charisma", 10) {
		t.Error("unknown stat reported as applied")
	}
	if s != before {
		t.Errorf("unknown stat changed stats: %+v", s)
	}
	for _, name := range StatNames {
		if _, ok := s.Get(name); !ok {
			t.Errorf("Get(%s) unknown", name)
		}
	}
}
