// Package recommend maps analysis keywords to suggested emergency services.
//
// The mapping is the single source of truth for both the automatic service
// pre-selection applied after video processing and the advisory "Recommended"
// badges shown next to each service, so the two can never drift apart.
package recommend

// Services is the set of dispatchable emergency services.
type Services struct {
	Police    bool `json:"police"`
	Ambulance bool `json:"ambulance"`
	Fire      bool `json:"fire"`
}

// Any reports whether at least one service is selected.
func (s Services) Any() bool {
	return s.Police || s.Ambulance || s.Fire
}

// triggers maps each service to the keywords that activate it.
// Matches are exact and case-sensitive: the backend emits these tags verbatim.
var triggers = map[string][]string{
	"police":    {"Vehicle Collision"},
	"ambulance": {"Injuries", "Critical Condition"},
	"fire":      {"Fire Hazard", "Fuel Leak"},
}

// Recommend computes the suggested service activation for a keyword set.
// The result overwrites any prior selection; the operator can toggle freely
// afterwards.
func Recommend(keywords []string) Services {
	return Services{
		Police:    matchAny(keywords, triggers["police"]),
		Ambulance: matchAny(keywords, triggers["ambulance"]),
		Fire:      matchAny(keywords, triggers["fire"]),
	}
}

// Recommended reports whether a single service is advised for the keyword set.
// Purely advisory: it never gates toggling.
func Recommended(service string, keywords []string) bool {
	return matchAny(keywords, triggers[service])
}

func matchAny(keywords, wanted []string) bool {
	for _, kw := range keywords {
		for _, w := range wanted {
			if kw == w {
				return true
			}
		}
	}
	return false
}
