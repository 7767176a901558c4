// Package github finds repositories with GitHub Actions history.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"docqa/internal/config"
)

var ErrNoRepository = errors.New("no repository with workflow runs found")

type Finder struct {
	client *gh.Client
	user   string
}

// NewFinder authenticates with cfg.Token. BaseURL points the client at a
// GitHub Enterprise or test server.
func NewFinder(cfg config.GitHubConfig) (*Finder, error) {
	client := gh.NewClient(nil).WithAuthToken(cfg.Token)
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		client.BaseURL = base
	}
	return &Finder{client: client, user: strings.TrimSpace(cfg.User)}, nil
}

// FirstRepoWithRuns walks the user's repositories, most recently updated
// first, and returns the html URL of the first one with a workflow run.
func (f *Finder) FirstRepoWithRuns(ctx context.Context) (string, error) {
	user, err := f.login(ctx)
	if err != nil {
		return "", err
	}
	opts := &gh.RepositoryListByUserOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	for {
		repos, resp, err := f.client.Repositories.ListByUser(ctx, user, opts)
		if err != nil {
			return "", fmt.Errorf("list repositories of %s: %w", user, err)
		}
		for _, repo := range repos {
			owner := repo.GetOwner().GetLogin()
			if owner == "" {
				owner = user
			}
			runs, _, err := f.client.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo.GetName(), &gh.ListWorkflowRunsOptions{
				ListOptions: gh.ListOptions{PerPage: 1},
			})
			if err != nil {
				return "", fmt.Errorf("list workflow runs of %s/%s: %w", owner, repo.GetName(), err)
			}
			if runs.GetTotalCount() > 0 {
				return repo.GetHTMLURL(), nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return "", ErrNoRepository
		}
		opts.Page = resp.NextPage
	}
}

func (f *Finder) login(ctx context.Context) (string, error) {
	if f.user != "" {
		return f.user, nil
	}
	me, _, err := f.client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("resolve github user: %w", err)
	}
	return me.GetLogin(), nil
}
