package research

import "testing"

func TestParseCadence(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		iters   []int
		last    int
		want    []bool
		wantErr bool
	}{
		{
			name:  "empty spec runs every iteration",
			spec:  "",
			iters: []int{1, 2, 3},
			last:  3,
			want:  []bool{true, true, true},
		},
		{
			name:  "periodic",
			spec:  "%3",
			iters: []int{1, 2, 3, 4, 5, 6},
			last:  6,
			want:  []bool{false, false, true, false, false, true},
		},
		{
			name:  "single iteration",
			spec:  "2",
			iters: []int{1, 2, 3},
			last:  3,
			want:  []bool{false, true, false},
		},
		{
			name:  "last only",
			spec:  "last",
			iters: []int{1, 2, 3},
			last:  3,
			want:  []bool{false, false, true},
		},
		{
			name:  "combined",
			spec:  "%2,last",
			iters: []int{1, 2, 3, 4, 5},
			last:  5,
			want:  []bool{false, true, false, true, true},
		},
		{
			name:    "invalid period",
			spec:    "%0",
			wantErr: true,
		},
		{
			name:    "garbage",
			spec:    "every now and then",
			wantErr: true,
		},
		{
			name:    "negative iteration",
			spec:    "-3",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCadence(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCadence(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			for i, iter := range tt.iters {
				if got := c.Matches(iter, tt.last); got != tt.want[i] {
					t.Errorf("Matches(%d, %d) = %v, want %v", iter, tt.last, got, tt.want[i])
				}
			}
		})
	}
}

func TestCadenceSpacesTolerated(t *testing.T) {
	c, err := ParseCadence(" %10 , last ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Matches(10, 37) {
		t.Error("expected iteration 10 to match %10")
	}
	if !c.Matches(37, 37) {
		t.Error("expected final iteration to match last")
	}
	if c.Matches(5, 37) {
		t.Error("iteration 5 should not match")
	}
}
