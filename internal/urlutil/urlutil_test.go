package urlutil

import "testing"

func TestSplitRepo(t *testing.T) {
	tests := []struct {
		in        string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{in: "acme/widgets", wantOwner: "acme", wantRepo: "widgets"},
		{in: "acme", wantErr: true},
		{in: "/widgets", wantErr: true},
		{in: "acme/", wantErr: true},
		{in: "acme/widgets/extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			owner, repo, err := SplitRepo(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitRepo(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("SplitRepo(%q) = %q, %q", tt.in, owner, repo)
			}
		})
	}
}

func TestRepoFromAPIURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://api.github.com/repos/acme/widgets", "acme/widgets"},
		{"https://api.github.com/repos/acme/widgets/issues/12", "acme/widgets"},
		{"https://ghe.example.com/api/v3/repos/acme/widgets", "acme/widgets"},
		{"https://api.github.com/repos/acme", ""},
		{"https://api.github.com/users/acme", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := RepoFromAPIURL(tt.in); got != tt.want {
				t.Errorf("RepoFromAPIURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
