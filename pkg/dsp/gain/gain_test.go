package gain

import (
	"math"
	"testing"
)

func TestDbConversion(t *testing.T) {
	tests := []struct {
		name    string
		linear  float64
		db      float64
		epsilon float64
	}{
		{"Unity gain", 1.0, 0.0, 0.001},
		{"Half amplitude", 0.5, -6.02, 0.01},
		{"Double amplitude", 2.0, 6.02, 0.01},
		{"Zero amplitude", 0.0, MinDB, 0.001},
		{"Negative amplitude", -1.0, MinDB, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotDb := LinearToDb(tt.linear)
			if math.Abs(gotDb-tt.db) > tt.epsilon {
				t.Errorf("LinearToDb(%f) = %f, want %f", tt.linear, gotDb, tt.db)
			}

			if tt.db != MinDB {
				gotLinear := DbToLinear(tt.db)
				if math.Abs(gotLinear-tt.linear) > tt.epsilon {
					t.Errorf("DbToLinear(%f) = %f, want %f", tt.db, gotLinear, tt.linear)
				}
			}
		})
	}

	if DbToLinear(MinDB) != 0 {
		t.Error("DbToLinear(MinDB) should be 0")
	}
}

func TestApplyBuffer(t *testing.T) {
	buf := []float32{0.5, -0.25, 0}
	ApplyBuffer(buf, 2)

	want := []float32{1, -0.5, 0}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("buf[%d] = %f, want %f", i, buf[i], want[i])
		}
	}
}

func TestCompensation(t *testing.T) {
	c := Compensation(2)
	if math.Abs(c.Db()-6.02) > 0.01 {
		t.Errorf("Db() = %f, want ~6.02", c.Db())
	}
	if math.Abs(float64(CompensationDb(6.0206))-2) > 0.001 {
		t.Errorf("CompensationDb(6.0206) = %f", CompensationDb(6.0206))
	}

	left := []float32{0.1, 0.2, 0.3, 0.4}
	right := []float32{-0.1, -0.2, -0.3, -0.4}
	c.Apply([][]float32{left, right}, 3)

	if left[2] != 0.6 || right[0] != -0.2 {
		t.Errorf("Apply did not scale: %v %v", left, right)
	}
	if left[3] != 0.4 {
		t.Error("Apply must leave samples past frames untouched")
	}
}
