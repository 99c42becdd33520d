package prompt

import "testing"

func TestBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		base     string
		memories []string
		history  []string
		input    string
		want     string
	}{
		{
			name:  "empty memory and history",
			base:  "Yukari is a gap youkai.",
			input: "You say, \"hi\"\n",
			want:  "Yukari is a gap youkai.\n\nYou say, \"hi\"\n",
		},
		{
			name:     "memories in order",
			base:     "ctx",
			memories: []string{"Ran is a kitsune.", "Chen is a nekomata."},
			want:     "ctx\nRan is a kitsune.\nChen is a nekomata.\n",
		},
		{
			name:    "history oldest first",
			base:    "ctx",
			history: []string{"You wave.\n", " Yukari waves back.\n"},
			input:   "You sit.\n",
			want:    "ctx\n\nYou wave.\n Yukari waves back.\nYou sit.\n",
		},
		{
			name:     "everything",
			base:     "ctx",
			memories: []string{"m1"},
			history:  []string{"h1\n"},
			input:    "in\n",
			want:     "ctx\nm1\nh1\nin\n",
		},
		{
			name: "all empty",
			want: "\n\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Build(tc.base, tc.memories, tc.history, tc.input); got != tc.want {
				t.Fatalf("Build() = %q, want %q", got, tc.want)
			}
		})
	}
}
