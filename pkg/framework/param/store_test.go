package param

import (
	"errors"
	"math"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	decls := []struct {
		id            string
		min, max, def float64
		unit          string
	}{
		{"delay", 0.02, 0.1, 0.04, "s"},
		{"rtmid", 0.1, 8.0, 2.0, "s"},
		{"rtlow", 0.1, 8.0, 3.0, "s"},
		{"damp", 1000, 20000, 6000, "Hz"},
		{"mix", 0, 1, 0.8, ""},
	}
	for _, d := range decls {
		if _, err := s.Declare(d.id, d.min, d.max, d.def, d.unit); err != nil {
			t.Fatalf("Declare(%s) failed: %v", d.id, err)
		}
	}
	return s
}

func TestDeclare(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		s := newTestStore(t)
		if s.Count() != 5 {
			t.Fatalf("Expected 5 parameters, got %d", s.Count())
		}
		if got := s.Get("damp"); got != 6000 {
			t.Errorf("damp default = %f, want 6000", got)
		}
		if got := s.Parameter("delay").Unit; got != "s" {
			t.Errorf("delay unit = %q, want s", got)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.Declare("mix", 0, 1, 0.5, "")
		if !errors.Is(err, ErrDuplicateParameter) {
			t.Errorf("Expected ErrDuplicateParameter, got %v", err)
		}
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("Duplicate should be a configuration error, got %v", err)
		}
		if s.Count() != 5 {
			t.Errorf("Duplicate must not grow the table, got %d", s.Count())
		}
	})

	t.Run("EmptyRange", func(t *testing.T) {
		s := NewStore()
		for _, r := range [][2]float64{{1, 1}, {2, 1}, {math.NaN(), 1}} {
			if _, err := s.Declare("x", r[0], r[1], 0, ""); !errors.Is(err, ErrInvalidRange) {
				t.Errorf("Declare range %v: expected ErrInvalidRange, got %v", r, err)
			}
		}
	})

	t.Run("DefaultOutsideRange", func(t *testing.T) {
		s := NewStore()
		p, err := s.Declare("g", 0, 1, 4, "")
		if err != nil {
			t.Fatal(err)
		}
		if p.DefaultValue != 1 || p.Value() != 1 {
			t.Errorf("Default should be clamped to 1, got default=%f value=%f", p.DefaultValue, p.Value())
		}
	})
}

func TestSetGet(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		id    string
		value float64
		want  float64
	}{
		{"delay", 0.05, 0.05},
		{"delay", 0.5, 0.1},
		{"delay", -1, 0.02},
		{"rtmid", 8.0, 8.0},
		{"rtlow", 0.1, 0.1},
		{"damp", 25000, 20000},
		{"mix", 0.333, 0.333},
		{"mix", math.Inf(-1), 0},
		{"mix", math.NaN(), 0.8},
	}

	for _, test := range tests {
		s.Set(test.id, test.value)
		if got := s.Get(test.id); got != test.want {
			t.Errorf("Set(%s, %v); Get = %v, want %v", test.id, test.value, got, test.want)
		}
	}
}

func TestListeners(t *testing.T) {
	s := newTestStore(t)

	type change struct {
		id    string
		value float64
	}
	var got []change
	s.AddListener(func(id string, value float64) {
		got = append(got, change{id, value})
	})

	s.Set("rtmid", 100)
	s.Set("mix", 0.25)

	want := []change{{"rtmid", 8.0}, {"mix", 0.25}}
	if len(got) != len(want) {
		t.Fatalf("Expected %d notifications, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestUnknownParameterPanics(t *testing.T) {
	s := newTestStore(t)

	for name, fn := range map[string]func(){
		"Set": func() { s.Set("size", 1) },
		"Get": func() { s.Get("size") },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Expected panic for unknown parameter")
				}
			}()
			fn()
		})
	}

	if s.Parameter("size") != nil {
		t.Error("Parameter should return nil for unknown id")
	}
}

func TestSnapshotRestore(t *testing.T) {
	t.Run("Idempotent", func(t *testing.T) {
		s := newTestStore(t)
		s.Set("delay", 0.077)
		s.Set("damp", 12345.678)

		first := s.Snapshot()
		s.Restore(first)
		second := s.Snapshot()

		if len(first) != len(second) {
			t.Fatalf("Snapshot size changed: %d vs %d", len(first), len(second))
		}
		for id, v := range first {
			if math.Float64bits(second[id]) != math.Float64bits(v) {
				t.Errorf("%s changed across restore: %v -> %v", id, v, second[id])
			}
		}
	})

	t.Run("UnknownIgnored", func(t *testing.T) {
		s := newTestStore(t)
		before := s.Snapshot()

		s.Restore(map[string]float64{"size": 0.5, "width": 2})

		after := s.Snapshot()
		for id, v := range before {
			if after[id] != v {
				t.Errorf("%s altered by unknown ids: %v -> %v", id, v, after[id])
			}
		}
	})

	t.Run("MissingKeepsValue", func(t *testing.T) {
		s := newTestStore(t)
		s.Set("rtlow", 5)

		s.Restore(map[string]float64{"mix": 0.1})

		if got := s.Get("rtlow"); got != 5 {
			t.Errorf("rtlow = %v, want 5", got)
		}
		if got := s.Get("mix"); got != 0.1 {
			t.Errorf("mix = %v, want 0.1", got)
		}
	})

	t.Run("ClampsAndNotifies", func(t *testing.T) {
		s := newTestStore(t)
		notified := map[string]float64{}
		s.AddListener(func(id string, value float64) { notified[id] = value })

		s.Restore(map[string]float64{"damp": 1e9, "delay": 0.03})

		if notified["damp"] != 20000 {
			t.Errorf("damp notification = %v, want 20000", notified["damp"])
		}
		if notified["delay"] != 0.03 {
			t.Errorf("delay notification = %v, want 0.03", notified["delay"])
		}
		if len(notified) != 2 {
			t.Errorf("Expected 2 notifications, got %d", len(notified))
		}
	})
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	s.Set("mix", 0.1)
	s.Set("rtmid", 7)

	s.Reset()

	if s.Get("mix") != 0.8 || s.Get("rtmid") != 2.0 {
		t.Errorf("Reset did not restore defaults: mix=%v rtmid=%v", s.Get("mix"), s.Get("rtmid"))
	}
}

func TestGetDoesNotAllocate(t *testing.T) {
	s := newTestStore(t)
	s.AddListener(func(string, float64) {})

	allocs := testing.AllocsPerRun(100, func() {
		s.Set("mix", 0.5)
		_ = s.Get("mix")
	})
	if allocs != 0 {
		t.Errorf("Set/Get allocated %v times per run", allocs)
	}
}

func BenchmarkGet(b *testing.B) {
	s := NewStore()
	if _, err := s.Declare("mix", 0, 1, 0.8, ""); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Get("mix")
	}
}
