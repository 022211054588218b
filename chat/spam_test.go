package chat

import "testing"

func TestScoreSpam(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantScore int
		wantSpam  bool
	}{
		{
			name:      "Empty",
			content:   "",
			wantScore: 0,
			wantSpam:  false,
		},
		{
			name:      "Clean",
			content:   "how was your weekend?",
			wantScore: 0,
			wantSpam:  false,
		},
		{
			name:      "SingleKeyword",
			content:   "got a free ticket if anyone wants it",
			wantScore: 1,
			wantSpam:  false,
		},
		{
			name:      "TwoKeywords",
			content:   "free discount on everything",
			wantScore: 2,
			wantSpam:  true,
		},
		{
			name:      "ThreeKeywords",
			content:   "free discount click here",
			wantScore: 3,
			wantSpam:  true,
		},
		{
			name:      "CaseInsensitive",
			content:   "FREE!! DISCOUNT!!",
			wantScore: 2,
			wantSpam:  true,
		},
		{
			name:      "RepeatedKeywordCountsOnce",
			content:   "free free free",
			wantScore: 1,
			wantSpam:  false,
		},
		{
			name:      "DodgyLinkAlone",
			content:   "look at https://totally-legit.xyz ok",
			wantScore: 1,
			wantSpam:  false,
		},
		{
			name:      "DodgyLinkPlusKeyword",
			content:   "claim your prize at https://win-big.top now",
			wantScore: 2,
			wantSpam:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, spam := ScoreSpam(tt.content)
			if score != tt.wantScore {
				t.Errorf("Got score %d, want %d", score, tt.wantScore)
			}
			if spam != tt.wantSpam {
				t.Errorf("Got spam %t, want %t", spam, tt.wantSpam)
			}
		})
	}
}
