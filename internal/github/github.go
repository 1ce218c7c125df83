// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/google/go-github/v59/github"

	"github.com/scaladm/scaladm/internal/log"
	"github.com/scaladm/scaladm/internal/tokens"
)

// DefaultOrganization is the organization the course resources live under.
const DefaultOrganization = "scalableinternetservices"

// trackerHookURL receives commit notifications for Pivotal Tracker
// integration. The project token is appended as a query parameter.
const trackerHookURL = "https://www.pivotaltracker.com/services/v5/source_commits"

// teamsAPI is the subset of the Teams service used by Scaffolder.
type teamsAPI interface {
	AddTeamMembershipBySlug(ctx context.Context, org, slug, user string, opts *github.TeamAddTeamMembershipOptions) (*github.Membership, *github.Response, error)
	AddTeamRepoBySlug(ctx context.Context, org, slug, owner, repo string, opts *github.TeamAddTeamRepoOptions) (*github.Response, error)
	CreateTeam(ctx context.Context, org string, team github.NewTeam) (*github.Team, *github.Response, error)
	ListTeams(ctx context.Context, org string, opts *github.ListOptions) ([]*github.Team, *github.Response, error)
}

// reposAPI is the subset of the Repositories service used by Scaffolder.
type reposAPI interface {
	Create(ctx context.Context, org string, repo *github.Repository) (*github.Repository, *github.Response, error)
	CreateHook(ctx context.Context, owner, repo string, hook *github.Hook) (*github.Hook, *github.Response, error)
	Get(ctx context.Context, owner, repo string) (*github.Repository, *github.Response, error)
}

// Scaffolder provisions the GitHub side of a team.
type Scaffolder struct {
	teams teamsAPI
	repos reposAPI

	organization string
	in           io.Reader
	out          io.Writer
}

// Options configures NewScaffolder. Zero values fall back to the package
// defaults.
type Options struct {
	Organization string
	In           io.Reader
	Out          io.Writer
}

// NewScaffolder builds an authenticated client. The token comes from the
// cache or an interactive prompt.
func NewScaffolder(o Options) (*Scaffolder, error) {
	token, err := tokens.GitHub()
	if err != nil {
		return nil, err
	}

	if o.Organization == "" {
		o.Organization = DefaultOrganization
	}
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}

	client := github.NewClient(nil).WithAuthToken(token)
	return &Scaffolder{
		teams:        client.Teams,
		repos:        client.Repositories,
		organization: o.Organization,
		in:           o.In,
		out:          o.Out,
	}, nil
}

// ConfigureTeam creates the team and its repository and invites the listed
// users. Both creations find existing resources first so re-runs with an
// extended user list are safe.
func (s *Scaffolder) ConfigureTeam(ctx context.Context, team string, users []string) error {
	if !s.confirm(fmt.Sprintf("Create team and repository %q in %s?", team, s.organization)) {
		fmt.Fprintln(s.out, "Aborted.")
		return nil
	}

	ghTeam, err := s.findOrCreateTeam(ctx, team)
	if err != nil {
		return err
	}

	if err := s.findOrCreateRepo(ctx, ghTeam, team); err != nil {
		return err
	}

	for _, user := range users {
		_, _, err := s.teams.AddTeamMembershipBySlug(ctx, s.organization,
			ghTeam.GetSlug(), user, nil)
		if err != nil {
			return fmt.Errorf("failed to invite %s: %w", user, err)
		}
		fmt.Fprintf(s.out, "Invited: %s\n", user)
	}
	return nil
}

// confirm asks a yes/no question on the interactive streams. Anything but a
// leading y counts as no.
func (s *Scaffolder) confirm(question string) bool {
	fmt.Fprintf(s.out, "%s [yN]: ", question)
	scanner := bufio.NewScanner(s.in)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return strings.HasPrefix(answer, "y")
}

func (s *Scaffolder) findOrCreateTeam(ctx context.Context, name string) (*github.Team, error) {
	opts := &github.ListOptions{PerPage: 100}
	for {
		teams, resp, err := s.teams.ListTeams(ctx, s.organization, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list teams: %w", err)
		}
		for _, team := range teams {
			if team.GetName() == name {
				log.Debugf("team %s exists with slug %s", name, team.GetSlug())
				return team, nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	team, _, err := s.teams.CreateTeam(ctx, s.organization, github.NewTeam{
		Name:       name,
		Permission: github.String("push"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create team %s: %w", name, err)
	}
	fmt.Fprintf(s.out, "Created team: %s\n", name)
	return team, nil
}

func (s *Scaffolder) findOrCreateRepo(ctx context.Context, team *github.Team, name string) error {
	repo, resp, err := s.repos.Get(ctx, s.organization, name)
	switch {
	case err == nil:
		log.Debugf("repository %s exists", repo.GetFullName())
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		repo, _, err = s.repos.Create(ctx, s.organization, &github.Repository{
			Name:         github.String(name),
			HasWiki:      github.Bool(false),
			HasDownloads: github.Bool(false),
			TeamID:       team.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to create repository %s: %w", name, err)
		}
		fmt.Fprintf(s.out, "Created repository: %s\n", repo.GetFullName())
	default:
		return fmt.Errorf("failed to look up repository %s: %w", name, err)
	}

	// The webhook is attached on every run, so a team whose repository
	// predates its Tracker project still picks it up.
	if err := s.addTrackerHook(ctx, name); err != nil {
		return err
	}

	// Explicit attach covers repositories that predate the team.
	if _, err := s.teams.AddTeamRepoBySlug(ctx, s.organization, team.GetSlug(),
		s.organization, name, &github.TeamAddTeamRepoOptions{Permission: "push"}); err != nil {
		return fmt.Errorf("failed to grant team access to %s: %w", name, err)
	}
	return nil
}

// addTrackerHook installs the Pivotal Tracker webhook when a Tracker token
// is available. A missing token skips the hook without error.
func (s *Scaffolder) addTrackerHook(ctx context.Context, repo string) error {
	token, err := tokens.PivotalTracker()
	if err != nil {
		return err
	}
	if token == "" {
		log.Debugf("no tracker token, skipping webhook for %s", repo)
		return nil
	}

	_, resp, err := s.repos.CreateHook(ctx, s.organization, repo, &github.Hook{
		Active: github.Bool(true),
		Events: []string{"push"},
		Config: map[string]interface{}{
			"url":          trackerHookURL + "?token=" + token,
			"content_type": "json",
		},
	})
	if err != nil {
		// 422 means the hook is already installed.
		if resp != nil && resp.Response != nil &&
			resp.StatusCode == http.StatusUnprocessableEntity {
			log.Debugf("tracker webhook already present on %s", repo)
			return nil
		}
		return fmt.Errorf("failed to add tracker webhook to %s: %w", repo, err)
	}
	fmt.Fprintf(s.out, "Added tracker webhook to: %s\n", repo)
	return nil
}
