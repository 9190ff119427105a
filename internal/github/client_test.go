package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantOK    bool
	}{
		{"plain", "https://github.com/octocat/hello-world", "octocat", "hello-world", true},
		{"git suffix", "https://github.com/octocat/hello-world.git", "octocat", "hello-world", true},
		{"trailing slash", "https://github.com/octocat/hello-world/", "octocat", "hello-world", true},
		{"dotted repo", "https://github.com/acme/some.repo", "acme", "some.repo", true},
		{"http scheme", "http://github.com/octocat/hello-world", "", "", false},
		{"other host", "https://gitlab.com/octocat/hello-world", "", "", false},
		{"missing repo", "https://github.com/octocat", "", "", false},
		{"extra path", "https://github.com/octocat/hello-world/tree/main", "", "", false},
		{"not a url", "deploy my app please", "", "", false},
		{"empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, ok := ParseRepoURL(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestArchiveURL(t *testing.T) {
	c := NewClient("")

	assert.Equal(
		t,
		"https://github.com/octocat/hello-world/archive/main.tar.gz",
		c.ArchiveURL("octocat", "hello-world", "main"),
	)
}
