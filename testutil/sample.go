package testutil

// SampleStruct is a recursive struct with json tags.
type SampleStruct struct {
	A int            `json:"a,omitempty"`
	B string         `json:"b,omitempty"`
	C bool           `json:"c,omitempty"`
	D []int          `json:"d,omitempty"`
	E map[string]int `json:"e,omitempty"`
	F *SampleStruct  `json:"f,omitempty"`
	G float32        `json:"g,omitempty"`
	H float64        `json:"h,omitempty"`
}

// Restaurant is the nested document most tests flatten.
func Restaurant() map[string]any {
	return map[string]any{
		"name": "Ravagh",
		"type": "Persian",
		"address": map[string]any{
			"street": map[string]any{
				"line1": "11 E 30th St",
				"line2": "APT 1",
			},
			"city":  "New York",
			"state": "NY",
			"zip":   10016,
		},
	}
}
