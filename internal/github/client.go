// Package github implements the SourceHost client for branch listing and
// archive URLs.
package github

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/go-github/v56/github"
	"golang.org/x/oauth2"

	"github.com/sfwcore/herobot/internal/model"
)

const archiveBase = "https://github.com"

// repoURLRegexp accepts https://github.com/<owner>/<repo>, with an optional
// .git suffix and trailing slash. Nothing else.
var repoURLRegexp = regexp.MustCompile(
	`^https://github\.com/([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+?)(?:\.git)?/?$`,
)

// ParseRepoURL extracts owner and repository from a repository URL.
func ParseRepoURL(rawURL string) (owner, repo string, ok bool) {
	m := repoURLRegexp.FindStringSubmatch(rawURL)
	if m == nil {
		return "", "", false
	}

	return m[1], m[2], true
}

type Client struct {
	client *github.Client
}

var _ model.SourceHost = (*Client)(nil)

// NewClient builds a GitHub client. The token is optional: public
// repositories list branches unauthenticated.
func NewClient(token string) *Client {
	var client *github.Client

	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(context.Background(), ts)
		client = github.NewClient(tc)
	} else {
		client = github.NewClient(nil)
	}

	return &Client{
		client: client,
	}
}

// NewClientWithBaseURL points the client at a different API endpoint, used
// by tests.
func NewClientWithBaseURL(token, baseURL string) (*Client, error) {
	c := NewClient(token)

	enterprise, err := c.client.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to set base URL: %w", err)
	}

	c.client = enterprise
	return c, nil
}

func (c *Client) ListBranches(
	ctx context.Context,
	owner, repo string,
) ([]string, error) {
	opts := &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var names []string
	for {
		branches, resp, err := c.client.Repositories.ListBranches(
			ctx, owner, repo, opts,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: list branches: %v", model.ErrUnavailable, err)
		}

		for _, branch := range branches {
			names = append(names, branch.GetName())
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return names, nil
}

// ArchiveURL is a deterministic template, not a queried value.
func (c *Client) ArchiveURL(owner, repo, branch string) string {
	return fmt.Sprintf(
		"%s/%s/%s/archive/%s.tar.gz",
		archiveBase, owner, repo, branch,
	)
}
