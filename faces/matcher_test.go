package faces

import (
	"math"
	"testing"
)

func descriptorAt(v float64) Descriptor {
	var d Descriptor
	d[0] = v
	return d
}

func TestDistance(t *testing.T) {
	a := descriptorAt(0)
	b := descriptorAt(0.3)
	if got := Distance(a, b); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("Distance() = %v, want 0.3", got)
	}
	if got := Distance(a, a); got != 0 {
		t.Errorf("Distance(a, a) = %v, want 0", got)
	}
}

func TestFindBestMatch(t *testing.T) {
	gallery := NewGallery(2)
	gallery.Add("alice", descriptorAt(0))
	gallery.Add("bob", descriptorAt(1))

	tests := []struct {
		name         string
		query        Descriptor
		threshold    float64
		wantLabel    string
		wantDistance float64
		wantAccepted bool
	}{
		{"close match accepted", descriptorAt(0.3), 0.6, "alice", 0.3, true},
		{"distance equal to threshold accepted", descriptorAt(0.6), 0.6, "alice", 0.6, true},
		{"closest entry wins", descriptorAt(0.9), 0.6, "bob", 0.1, true},
		{"beyond threshold rejected", descriptorAt(2.0), 0.6, UnknownLabel, 1.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindBestMatch(tt.query, gallery, tt.threshold)
			if got.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", got.Label, tt.wantLabel)
			}
			if math.Abs(got.Distance-tt.wantDistance) > 1e-9 {
				t.Errorf("Distance = %v, want %v", got.Distance, tt.wantDistance)
			}
			if got.Accepted != tt.wantAccepted {
				t.Errorf("Accepted = %v, want %v", got.Accepted, tt.wantAccepted)
			}
		})
	}
}

func TestFindBestMatchEmptyGallery(t *testing.T) {
	got := FindBestMatch(descriptorAt(0.1), NewGallery(2), 0.6)
	if got.Label != UnknownLabel {
		t.Errorf("Label = %q, want %q", got.Label, UnknownLabel)
	}
	if !math.IsInf(got.Distance, 1) {
		t.Errorf("Distance = %v, want +Inf", got.Distance)
	}
	if got.Accepted {
		t.Error("Accepted = true, want false")
	}
}

func TestFindBestMatchTie(t *testing.T) {
	// Two references at the exact same distance: either may win,
	// but the result must be one of them and be accepted
	gallery := NewGallery(2)
	gallery.Add("alice", descriptorAt(0))
	gallery.Add("bob", descriptorAt(0.4))

	got := FindBestMatch(descriptorAt(0.2), gallery, 0.6)
	if got.Label != "alice" && got.Label != "bob" {
		t.Errorf("Label = %q, want one of the tied identities", got.Label)
	}
	if math.Abs(got.Distance-0.2) > 1e-9 {
		t.Errorf("Distance = %v, want 0.2", got.Distance)
	}
	if !got.Accepted {
		t.Error("Accepted = false, want true")
	}
}
