package slide

// Stage dimensions of the legacy player. Every coordinate and translation is
// normalized against these before export.
const (
	StageWidth  = 1024.0
	StageHeight = 768.0
)

// Matrix4 is a column-major 4x4 transform matrix, the form the player's
// renderer consumes directly.
type Matrix4 [16]float64

// Identity returns the identity matrix.
func Identity() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns m * other.
func (m Matrix4) Mul(other Matrix4) Matrix4 {
	var out Matrix4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * other[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

func translate(tx, ty, tz float64) Matrix4 {
	out := Identity()
	out[12] = tx
	out[13] = ty
	out[14] = tz
	return out
}

func scale(sx, sy, sz float64) Matrix4 {
	out := Identity()
	out[0] = sx
	out[5] = sy
	out[10] = sz
	return out
}

func skewX(s float64) Matrix4 {
	out := Identity()
	out[4] = s
	return out
}

func skewY(s float64) Matrix4 {
	out := Identity()
	out[1] = s
	return out
}

// IsIdentityLegacy reports whether a legacy [a,b,c,d,tx,ty] transform is the
// identity, in which case the export elides it.
func IsIdentityLegacy(t []float64) bool {
	if len(t) != 6 {
		return false
	}
	identity := [6]float64{1, 0, 0, 1, 0, 0}
	for i, v := range t {
		if v != identity[i] {
			return false
		}
	}
	return true
}

// FromLegacy converts a legacy 2D affine transform [a,b,c,d,tx,ty] into the
// player's 4x4 form. The translation components are normalized to the stage;
// the remaining coefficients pass through as translate * scale * skew terms.
func FromLegacy(t []float64) Matrix4 {
	if len(t) != 6 {
		return Identity()
	}
	a, b, c, d := t[0], t[1], t[2], t[3]
	tx, ty := t[4]/StageWidth, t[5]/StageHeight
	return translate(tx, ty, 0).
		Mul(scale(a, d, 1)).
		Mul(skewX(c)).
		Mul(skewY(b))
}
