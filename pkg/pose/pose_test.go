package pose

import "testing"

func TestReset(t *testing.T) {
	p := Pose{
		Body:        Vec3{X: 1, Y: 2, Z: 3},
		ArmLeft:     Vec3{Z: -6},
		ArmRight:    Vec3{Z: 6},
		Head:        Vec3{Y: 50},
		Cape:        0.4,
		ElapsedTime: 12.5,
	}

	p.Reset()

	if !p.IsZero() {
		t.Errorf("Reset left non-zero state: %+v", p)
	}
}

func TestZero(t *testing.T) {
	p := Zero()
	if !p.IsZero() {
		t.Errorf("Zero() returned non-zero pose: %+v", p)
	}
}

func TestVariantString(t *testing.T) {
	tests := []struct {
		variant SkinVariant
		want    string
	}{
		{VariantClassic, "classic"},
		{VariantSlim, "slim"},
		{SkinVariant(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.variant.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.variant), got, tt.want)
		}
	}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in     string
		want   SkinVariant
		wantOK bool
	}{
		{"classic", VariantClassic, true},
		{"slim", VariantSlim, true},
		{"", VariantClassic, true}, // empty defaults to classic
		{"wide", VariantClassic, false},
	}

	for _, tt := range tests {
		got, ok := ParseVariant(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseVariant(%q) = (%v, %v), want (%v, %v)",
				tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
