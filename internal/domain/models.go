package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Base carries the identity and timestamps every entity shares.
type Base struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBase generates a fresh id and stamps both timestamps with now in UTC.
func NewBase(now time.Time) Base {
	now = now.UTC()
	return Base{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch refreshes UpdatedAt after a mutation.
func (b *Base) Touch(now time.Time) {
	b.UpdatedAt = now.UTC()
}

type Project struct {
	Base
	Name           string
	Epic           string
	Type           ProjectType
	Status         ProjectStatus
	GithubRepoURL  *string
	GithubRepoName *string
}

// PRURL builds the pull request link for prNumber in the project's repository.
func (p Project) PRURL(prNumber int) (string, bool) {
	if p.GithubRepoURL == nil || *p.GithubRepoURL == "" {
		return "", false
	}
	return pullURL(*p.GithubRepoURL, prNumber), true
}

type ProjectSummary struct {
	ID           uuid.UUID
	Name         string
	Type         ProjectType
	Status       ProjectStatus
	CreatedAt    time.Time
	FeatureCount int
}

type ProjectDetail struct {
	Project
	Features []FeatureSummary
}

type Feature struct {
	Base
	ProjectID   uuid.UUID
	Name        string
	Description string
	Status      FeatureStatus
	BranchName  *string
	Order       int
}

type FeatureSummary struct {
	ID         uuid.UUID
	Name       string
	Status     FeatureStatus
	BranchName *string
	Order      int
	PBICount   int
}

type FeatureDetail struct {
	Feature
	PBICount int
}

// PBI is a product backlog item: one backend or frontend unit of work.
type PBI struct {
	Base
	FeatureID     uuid.UUID
	Title         string
	Description   string
	Type          PBIType
	Status        PBIStatus
	AssignedAgent *string
	BranchName    *string
	PRNumber      *int
	PRStatus      *PRStatus
	BlockedByID   *uuid.UUID
	Order         int
}

// PRURL builds the pull request link from the owning project's repository URL.
// A missing repository or a missing (or zero) PR number yields no link.
func (p PBI) PRURL(githubRepoURL *string) (string, bool) {
	if p.PRNumber == nil || *p.PRNumber == 0 {
		return "", false
	}
	return Project{GithubRepoURL: githubRepoURL}.PRURL(*p.PRNumber)
}

// PBIDetail is a PBI with its derived pull request link, when one exists.
type PBIDetail struct {
	PBI
	PRURL *string
}

type AgentLog struct {
	Base
	ProjectID   uuid.UUID
	PBIID       *uuid.UUID
	AgentName   string
	MessageType AgentMessageType
	Content     string
	ExtraData   map[string]any
}

func pullURL(repoURL string, prNumber int) string {
	return fmt.Sprintf("%s/pull/%d", strings.TrimRight(repoURL, "/"), prNumber)
}
