package recommend

import "testing"

func TestRecommend_KeywordMapping(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		want     Services
	}{
		{
			name:     "collision and injuries",
			keywords: []string{"Vehicle Collision", "Injuries"},
			want:     Services{Police: true, Ambulance: true, Fire: false},
		},
		{
			name:     "fuel leak only",
			keywords: []string{"Fuel Leak"},
			want:     Services{Fire: true},
		},
		{
			name:     "critical condition",
			keywords: []string{"Critical Condition"},
			want:     Services{Ambulance: true},
		},
		{
			name:     "fire hazard and collision",
			keywords: []string{"Fire Hazard", "Vehicle Collision"},
			want:     Services{Police: true, Fire: true},
		},
		{
			name:     "no keywords",
			keywords: nil,
			want:     Services{},
		},
		{
			name:     "unknown keywords",
			keywords: []string{"Traffic Congestion", "Smoke"},
			want:     Services{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommend(tt.keywords)
			if got != tt.want {
				t.Errorf("Recommend(%v) = %+v, want %+v", tt.keywords, got, tt.want)
			}
		})
	}
}

func TestRecommend_CaseSensitive(t *testing.T) {
	got := Recommend([]string{"vehicle collision", "INJURIES", "fuel leak"})
	if got.Any() {
		t.Errorf("keyword matching must be case-sensitive, got %+v", got)
	}
}

func TestRecommended_AgreesWithRecommend(t *testing.T) {
	keywords := []string{"Vehicle Collision", "Fuel Leak"}
	svc := Recommend(keywords)

	checks := map[string]bool{
		"police":    svc.Police,
		"ambulance": svc.Ambulance,
		"fire":      svc.Fire,
	}
	for name, want := range checks {
		if got := Recommended(name, keywords); got != want {
			t.Errorf("Recommended(%q) = %v, Recommend gave %v", name, got, want)
		}
	}
}

func TestRecommended_UnknownService(t *testing.T) {
	if Recommended("coastguard", []string{"Vehicle Collision"}) {
		t.Error("unknown service must never be recommended")
	}
}

func TestServices_Any(t *testing.T) {
	if (Services{}).Any() {
		t.Error("empty selection reported Any() = true")
	}
	if !(Services{Ambulance: true}).Any() {
		t.Error("single selection reported Any() = false")
	}
}
