package slide

import (
	"math"
	"testing"
)

func TestFromLegacyPureAffine(t *testing.T) {
	m := FromLegacy([]float64{2, 0, 0, 3, 512, 384})

	if m[0] != 2 || m[5] != 3 {
		t.Fatalf("unexpected scale terms: m[0]=%v m[5]=%v", m[0], m[5])
	}
	if m[12] != 0.5 || m[13] != 0.5 {
		t.Fatalf("expected stage-normalized translation, got m[12]=%v m[13]=%v", m[12], m[13])
	}
	if m[10] != 1 || m[15] != 1 {
		t.Fatalf("expected unit depth terms, got m[10]=%v m[15]=%v", m[10], m[15])
	}
}

func TestFromLegacyIdentity(t *testing.T) {
	m := FromLegacy([]float64{1, 0, 0, 1, 0, 0})
	if m != Identity() {
		t.Fatalf("identity input must yield identity matrix, got %v", m)
	}
}

func TestFromLegacySkewTerms(t *testing.T) {
	b, c := 0.25, 0.5
	m := FromLegacy([]float64{2, b, c, 3, 0, 0})

	// translate * scale * skewX * skewY expands to these four upper-left terms.
	wantM0 := 2 + 2*c*b
	wantM1 := 3 * b
	wantM4 := 2 * c
	wantM5 := 3.0

	for _, check := range []struct {
		idx  int
		want float64
	}{
		{0, wantM0}, {1, wantM1}, {4, wantM4}, {5, wantM5},
	} {
		if math.Abs(m[check.idx]-check.want) > 1e-12 {
			t.Fatalf("m[%d] = %v, want %v", check.idx, m[check.idx], check.want)
		}
	}
}

func TestIsIdentityLegacy(t *testing.T) {
	if !IsIdentityLegacy([]float64{1, 0, 0, 1, 0, 0}) {
		t.Fatal("expected identity to be recognized")
	}
	if IsIdentityLegacy([]float64{1, 0, 0, 1, 10, 0}) {
		t.Fatal("translated transform is not identity")
	}
	if IsIdentityLegacy(nil) {
		t.Fatal("nil transform is not identity")
	}
}

func TestMulAgainstIdentity(t *testing.T) {
	m := FromLegacy([]float64{2, 0.1, 0.2, 3, 100, 200})
	if got := m.Mul(Identity()); got != m {
		t.Fatalf("m * I must equal m")
	}
	if got := Identity().Mul(m); got != m {
		t.Fatalf("I * m must equal m")
	}
}
