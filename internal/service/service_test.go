package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"geonosis/internal/domain"
	"geonosis/internal/service"
	"geonosis/internal/storage/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock advances one second per reading so created_at values are distinct.
type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newService(t *testing.T, opts ...service.Option) *service.EntityService {
	t.Helper()
	clock := &stepClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts = append([]service.Option{service.WithClock(clock.now)}, opts...)
	return service.New(memory.New(), opts...)
}

func TestCreateProjectDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	project, err := svc.CreateProject(ctx, domain.NewProject{Name: "Shop", Epic: "# Build a shop"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, project.ID)
	assert.Equal(t, domain.ProjectDraft, project.Status)
	assert.Equal(t, domain.ProjectTypeNew, project.Type)
	assert.Equal(t, project.CreatedAt, project.UpdatedAt)
	assert.Equal(t, time.UTC, project.CreatedAt.Location())
	assert.Nil(t, project.GithubRepoURL)

	got, err := svc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project, got)
}

func TestCreateProjectValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	tests := []struct {
		name    string
		in      domain.NewProject
		field   string
		message string
	}{
		{
			name:    "empty name",
			in:      domain.NewProject{Epic: "epic"},
			field:   "name",
			message: "is required",
		},
		{
			name:    "long name",
			in:      domain.NewProject{Name: strings.Repeat("x", 256), Epic: "epic"},
			field:   "name",
			message: "must be at most 255 characters long",
		},
		{
			name:    "empty epic",
			in:      domain.NewProject{Name: "Shop"},
			field:   "epic",
			message: "is required",
		},
		{
			name:    "unknown type",
			in:      domain.NewProject{Name: "Shop", Epic: "epic", Type: "GREENFIELD"},
			field:   "type",
			message: "has invalid value",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProject(ctx, tt.in)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.message, verr.Message)
		})
	}

	projects, err := svc.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestListProjectsNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	first := mustProject(t, svc, "first")
	second := mustProject(t, svc, "second")
	mustFeature(t, svc, first.ID, "a", 0)
	mustFeature(t, svc, first.ID, "b", 0)

	projects, err := svc.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	assert.Equal(t, second.ID, projects[0].ID)
	assert.Equal(t, 0, projects[0].FeatureCount)
	assert.Equal(t, first.ID, projects[1].ID)
	assert.Equal(t, 2, projects[1].FeatureCount)
}

func TestUpdateProjectMergePatch(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")

	completed := domain.ProjectCompleted
	updated, err := svc.UpdateProject(ctx, project.ID, domain.ProjectPatch{Status: &completed})
	require.NoError(t, err)

	assert.Equal(t, domain.ProjectCompleted, updated.Status)
	assert.Equal(t, project.Name, updated.Name)
	assert.Equal(t, project.Epic, updated.Epic)
	assert.Equal(t, project.Type, updated.Type)
	assert.Equal(t, project.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(project.UpdatedAt))

	stored, err := svc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
}

func TestUpdateProjectRepoFields(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")

	updated, err := svc.UpdateProject(ctx, project.ID, domain.ProjectPatch{
		GithubRepoURL:  domain.Some("https://github.com/org/shop"),
		GithubRepoName: domain.Some("org/shop"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.GithubRepoURL)
	assert.Equal(t, "https://github.com/org/shop", *updated.GithubRepoURL)

	cleared, err := svc.UpdateProject(ctx, project.ID, domain.ProjectPatch{GithubRepoURL: domain.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.GithubRepoURL)
	require.NotNil(t, cleared.GithubRepoName)
	assert.Equal(t, "org/shop", *cleared.GithubRepoName)
}

func TestUpdateProjectErrors(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	name := "x"
	_, err := svc.UpdateProject(ctx, uuid.New(), domain.ProjectPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	project := mustProject(t, svc, "Shop")
	empty := ""
	_, err = svc.UpdateProject(ctx, project.ID, domain.ProjectPatch{Name: &empty})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	bogus := domain.ProjectStatus("DONE")
	_, err = svc.UpdateProject(ctx, project.ID, domain.ProjectPatch{Status: &bogus})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)
}

func TestGetProjectWithFeatures(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")
	feature := mustFeature(t, svc, project.ID, "Cart", 0)
	mustPBI(t, svc, feature.ID, "API")

	detail, err := svc.GetProjectWithFeatures(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, detail.ID)
	require.Len(t, detail.Features, 1)
	assert.Equal(t, feature.ID, detail.Features[0].ID)
	assert.Equal(t, 1, detail.Features[0].PBICount)

	_, err = svc.GetProjectWithFeatures(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateFeatureOrdering(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")

	first := mustFeature(t, svc, project.ID, "first", 0)
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, domain.FeaturePending, first.Status)

	explicit := mustFeature(t, svc, project.ID, "explicit", 5)
	assert.Equal(t, 5, explicit.Order)

	next := mustFeature(t, svc, project.ID, "next", 0)
	assert.Equal(t, 6, next.Order)

	_, err := svc.CreateFeature(ctx, domain.NewFeature{ProjectID: project.ID, Name: "neg", Description: "d", Order: -1})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "order", verr.Field)
}

func TestCreateFeatureUnknownProject(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	missing := uuid.New()

	_, err := svc.CreateFeature(ctx, domain.NewFeature{ProjectID: missing, Name: "Cart", Description: "d"})

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, domain.EntityProject, nf.Entity)
	assert.Equal(t, missing, nf.ID)

	features, err := svc.ListFeatures(ctx, missing)
	require.NoError(t, err)
	assert.Empty(t, features)
}

func TestBulkCreateFeatures(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")
	mustFeature(t, svc, project.ID, "existing", 3)

	ignored := 42
	created, err := svc.BulkCreateFeatures(ctx, domain.BulkFeatures{
		ProjectID: project.ID,
		Features: []domain.BulkFeatureItem{
			{Name: "a", Description: "d"},
			{Name: "b", Description: "d", Order: &ignored},
			{Name: "c", Description: "d"},
		},
	})
	require.NoError(t, err)
	require.Len(t, created, 3)

	for i, want := range []int{4, 5, 6} {
		assert.Equal(t, want, created[i].Order)
	}
	assert.Equal(t, "a", created[0].Name)
	assert.Equal(t, "c", created[2].Name)
}

func TestBulkCreateFeaturesFailsAtomically(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")

	_, err := svc.BulkCreateFeatures(ctx, domain.BulkFeatures{ProjectID: project.ID})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "features", verr.Field)

	_, err = svc.BulkCreateFeatures(ctx, domain.BulkFeatures{
		ProjectID: project.ID,
		Features: []domain.BulkFeatureItem{
			{Name: "a", Description: "d"},
			{Name: "", Description: "d"},
		},
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "features[1].name", verr.Field)

	_, err = svc.BulkCreateFeatures(ctx, domain.BulkFeatures{
		ProjectID: uuid.New(),
		Features:  []domain.BulkFeatureItem{{Name: "a", Description: "d"}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	features, err := svc.ListFeatures(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, features)
}

func TestListFeaturesOrderThenCreatedAt(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")

	late := mustFeature(t, svc, project.ID, "late", 2)
	tieFirst := mustFeature(t, svc, project.ID, "tie-first", 1)
	tieSecond := mustFeature(t, svc, project.ID, "tie-second", 1)

	features, err := svc.ListFeatures(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, features, 3)
	assert.Equal(t, []uuid.UUID{tieFirst.ID, tieSecond.ID, late.ID},
		[]uuid.UUID{features[0].ID, features[1].ID, features[2].ID})
}

func TestUpdateFeature(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")
	feature := mustFeature(t, svc, project.ID, "Cart", 0)

	updated, err := svc.UpdateFeature(ctx, feature.ID, domain.FeaturePatch{
		BranchName: domain.Some("feature/cart"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.BranchName)
	assert.Equal(t, "feature/cart", *updated.BranchName)
	assert.Equal(t, feature.Name, updated.Name)

	done, err := svc.UpdateFeatureStatus(ctx, feature.ID, domain.FeatureCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.FeatureCompleted, done.Status)
	assert.Equal(t, "feature/cart", *done.BranchName)

	_, err = svc.UpdateFeatureStatus(ctx, feature.ID, domain.FeatureStatus("ARCHIVED"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateFeatureStatus(ctx, uuid.New(), domain.FeatureCompleted)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	detail, err := svc.GetFeature(ctx, feature.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FeatureCompleted, detail.Status)
	assert.Equal(t, 0, detail.PBICount)
}

func TestDeleteProjectCascades(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")
	other := mustProject(t, svc, "Other")

	var (
		featureIDs []uuid.UUID
		pbiIDs     []uuid.UUID
	)
	for _, name := range []string{"Cart", "Checkout"} {
		f := mustFeature(t, svc, project.ID, name, 0)
		featureIDs = append(featureIDs, f.ID)
		for _, title := range []string{"API", "UI"} {
			pbiIDs = append(pbiIDs, mustPBI(t, svc, f.ID, title).ID)
		}
	}
	mustLog(t, svc, project.ID, &pbiIDs[0])
	mustLog(t, svc, project.ID, nil)
	otherLog := mustLog(t, svc, other.ID, nil)

	deleted, err := svc.DeleteProject(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = svc.GetProject(ctx, project.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	for _, id := range featureIDs {
		_, err := svc.GetFeature(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	for _, id := range pbiIDs {
		_, err := svc.GetPBI(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	_, err = svc.ListAgentLogs(ctx, project.ID, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	logs, err := svc.ListAgentLogs(ctx, other.ID, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, otherLog.ID, logs[0].ID)

	again, err := svc.DeleteProject(ctx, project.ID)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestDeleteFeatureClearsOutsideReferences(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")
	doomed := mustFeature(t, svc, project.ID, "Doomed", 0)
	kept := mustFeature(t, svc, project.ID, "Kept", 0)

	blocker := mustPBI(t, svc, doomed.ID, "blocker")
	dependent := mustPBI(t, svc, kept.ID, "dependent")
	_, err := svc.SetBlocker(ctx, dependent.ID, &blocker.ID)
	require.NoError(t, err)
	entry := mustLog(t, svc, project.ID, &blocker.ID)

	deleted, err := svc.DeleteFeature(ctx, doomed.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = svc.GetPBI(ctx, blocker.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	survivor, err := svc.GetPBI(ctx, dependent.ID)
	require.NoError(t, err)
	assert.Nil(t, survivor.BlockedByID)

	logs, err := svc.ListAgentLogs(ctx, project.ID, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, entry.ID, logs[0].ID)
	assert.Nil(t, logs[0].PBIID)

	again, err := svc.DeleteFeature(ctx, doomed.ID)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestCreatePBI(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")
	feature := mustFeature(t, svc, project.ID, "Cart", 0)

	first := mustPBI(t, svc, feature.ID, "API")
	second := mustPBI(t, svc, feature.ID, "UI")
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, 1, second.Order)
	assert.Equal(t, domain.PBIPending, first.Status)

	_, err := svc.CreatePBI(ctx, domain.NewPBI{FeatureID: feature.ID, Title: "t", Description: "d"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Field)

	_, err = svc.CreatePBI(ctx, domain.NewPBI{FeatureID: uuid.New(), Title: "t", Description: "d", Type: domain.PBIBackend})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	missing := uuid.New()
	_, err = svc.CreatePBI(ctx, domain.NewPBI{
		FeatureID: feature.ID, Title: "t", Description: "d", Type: domain.PBIFrontend, BlockedByID: &missing,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	blocked, err := svc.CreatePBI(ctx, domain.NewPBI{
		FeatureID: feature.ID, Title: "t", Description: "d", Type: domain.PBIFrontend, BlockedByID: &first.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, blocked.BlockedByID)
	assert.Equal(t, first.ID, *blocked.BlockedByID)

	pbis, err := svc.ListPBIs(ctx, feature.ID)
	require.NoError(t, err)
	assert.Len(t, pbis, 3)
}

func TestUpdatePBIMergePatch(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")
	feature := mustFeature(t, svc, project.ID, "Cart", 0)
	pbi := mustPBI(t, svc, feature.ID, "API")

	updated, err := svc.UpdatePBI(ctx, pbi.ID, domain.PBIPatch{
		AssignedAgent: domain.Some("backend-agent"),
		PRNumber:      domain.Some(7),
		PRStatus:      domain.Some(domain.PROpen),
	})
	require.NoError(t, err)
	assert.Equal(t, "backend-agent", *updated.AssignedAgent)
	assert.Equal(t, 7, *updated.PRNumber)
	assert.Equal(t, domain.PROpen, *updated.PRStatus)
	assert.Equal(t, pbi.Title, updated.Title)

	cleared, err := svc.UpdatePBI(ctx, pbi.ID, domain.PBIPatch{PRNumber: domain.Null[int]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.PRNumber)
	assert.Equal(t, domain.PROpen, *cleared.PRStatus)

	_, err = svc.UpdatePBI(ctx, pbi.ID, domain.PBIPatch{PRStatus: domain.Some(domain.PRStatus("DRAFT"))})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "pr_status", verr.Field)

	_, err = svc.UpdatePBI(ctx, pbi.ID, domain.PBIPatch{AssignedAgent: domain.Some(strings.Repeat("a", 101))})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "assigned_agent", verr.Field)
	assert.Equal(t, "must be at most 100 characters long", verr.Message)
}

func TestPRURL(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")
	feature := mustFeature(t, svc, project.ID, "Cart", 0)
	pbi := mustPBI(t, svc, feature.ID, "API")

	_, ok, err := svc.PRURL(ctx, pbi.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.UpdateProject(ctx, project.ID, domain.ProjectPatch{
		GithubRepoURL: domain.Some("https://github.com/org/repo/"),
	})
	require.NoError(t, err)

	_, ok, err = svc.PRURL(ctx, pbi.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.UpdatePBI(ctx, pbi.ID, domain.PBIPatch{PRNumber: domain.Some(42)})
	require.NoError(t, err)

	url, ok, err := svc.PRURL(ctx, pbi.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://github.com/org/repo/pull/42", url)

	_, _, err = svc.PRURL(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetBlockerPermissive(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")
	feature := mustFeature(t, svc, project.ID, "Cart", 0)
	a := mustPBI(t, svc, feature.ID, "A")
	b := mustPBI(t, svc, feature.ID, "B")

	updated, err := svc.SetBlocker(ctx, a.ID, &b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, *updated.BlockedByID)

	blocking, err := svc.Blocking(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, blocking, 1)
	assert.Equal(t, a.ID, blocking[0].ID)

	// Loops are accepted without a cycle check.
	_, err = svc.SetBlocker(ctx, b.ID, &a.ID)
	require.NoError(t, err)
	_, err = svc.SetBlocker(ctx, a.ID, &a.ID)
	require.NoError(t, err)

	missing := uuid.New()
	_, err = svc.SetBlocker(ctx, a.ID, &missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cleared, err := svc.SetBlocker(ctx, a.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.BlockedByID)

	blocking, err = svc.Blocking(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, blocking)
}

func TestSetBlockerGuarded(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, service.WithCycleCheck(true))
	project := mustProject(t, svc, "Shop")
	feature := mustFeature(t, svc, project.ID, "Cart", 0)
	a := mustPBI(t, svc, feature.ID, "A")
	b := mustPBI(t, svc, feature.ID, "B")
	c := mustPBI(t, svc, feature.ID, "C")

	_, err := svc.SetBlocker(ctx, a.ID, &a.ID)
	var cycle *domain.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, a.ID, cycle.PBIID)
	assert.Equal(t, a.ID, cycle.BlockerID)
	assert.ErrorIs(t, err, domain.ErrDependencyCycle)
	assert.ErrorIs(t, err, domain.ErrValidation)

	// a <- b <- c: c blocked by b, b blocked by a.
	_, err = svc.SetBlocker(ctx, b.ID, &a.ID)
	require.NoError(t, err)
	_, err = svc.SetBlocker(ctx, c.ID, &b.ID)
	require.NoError(t, err)

	_, err = svc.SetBlocker(ctx, a.ID, &c.ID)
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, a.ID, cycle.PBIID)
	assert.Equal(t, c.ID, cycle.BlockerID)

	stored, err := svc.GetPBI(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.BlockedByID)

	// Re-pointing along the chain direction stays legal.
	_, err = svc.SetBlocker(ctx, c.ID, &a.ID)
	require.NoError(t, err)
}

func TestDeletePBIUnblocksDependents(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")
	feature := mustFeature(t, svc, project.ID, "Cart", 0)
	a := mustPBI(t, svc, feature.ID, "A")
	b := mustPBI(t, svc, feature.ID, "B")
	_, err := svc.SetBlocker(ctx, b.ID, &a.ID)
	require.NoError(t, err)
	mustLog(t, svc, project.ID, &a.ID)

	deleted, err := svc.DeletePBI(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	survivor, err := svc.GetPBI(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, survivor.BlockedByID)

	logs, err := svc.ListAgentLogs(ctx, project.ID, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].PBIID)

	again, err := svc.DeletePBI(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, again)

	_, err = svc.Blocking(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAgentLogs(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")
	feature := mustFeature(t, svc, project.ID, "Cart", 0)
	pbi := mustPBI(t, svc, feature.ID, "API")

	first := mustLog(t, svc, project.ID, nil)
	assert.Equal(t, map[string]any{}, first.ExtraData)

	second, err := svc.AppendAgentLog(ctx, domain.NewAgentLog{
		ProjectID:   project.ID,
		PBIID:       &pbi.ID,
		AgentName:   "backend-agent",
		MessageType: domain.MessageCode,
		Content:     "func main() {}",
		ExtraData:   map[string]any{"file": "main.go"},
	})
	require.NoError(t, err)

	all, err := svc.ListAgentLogs(ctx, project.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)

	filtered, err := svc.ListAgentLogs(ctx, project.ID, &pbi.ID)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "main.go", filtered[0].ExtraData["file"])

	missing := uuid.New()
	_, err = svc.AppendAgentLog(ctx, domain.NewAgentLog{
		ProjectID: missing, AgentName: "a", MessageType: domain.MessageThought, Content: "c",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.AppendAgentLog(ctx, domain.NewAgentLog{
		ProjectID: project.ID, PBIID: &missing, AgentName: "a", MessageType: domain.MessageThought, Content: "c",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.AppendAgentLog(ctx, domain.NewAgentLog{
		ProjectID: project.ID, AgentName: "a", MessageType: "SHOUT", Content: "c",
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "message_type", verr.Field)
}

func TestStoredEntitiesIgnoreCallerMutation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")
	feature := mustFeature(t, svc, project.ID, "Cart", 0)

	agent := "backend-agent"
	pbi, err := svc.CreatePBI(ctx, domain.NewPBI{
		FeatureID:     feature.ID,
		Title:         "API",
		Description:   "d",
		Type:          domain.PBIBackend,
		AssignedAgent: &agent,
	})
	require.NoError(t, err)
	agent = "someone-else"

	stored, err := svc.GetPBI(ctx, pbi.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AssignedAgent)
	assert.Equal(t, "backend-agent", *stored.AssignedAgent)
	assert.Equal(t, pbi.UpdatedAt, stored.UpdatedAt)

	*stored.AssignedAgent = "edited-read"
	again, err := svc.GetPBI(ctx, pbi.ID)
	require.NoError(t, err)
	assert.Equal(t, "backend-agent", *again.AssignedAgent)

	extra := map[string]any{"attempt": 1, "files": []any{"a.go"}}
	entry, err := svc.AppendAgentLog(ctx, domain.NewAgentLog{
		ProjectID:   project.ID,
		AgentName:   "coder",
		MessageType: domain.MessageAction,
		Content:     "retry",
		ExtraData:   extra,
	})
	require.NoError(t, err)
	extra["attempt"] = 99
	extra["files"].([]any)[0] = "b.go"
	entry.ExtraData["attempt"] = 7

	logs, err := svc.ListAgentLogs(ctx, project.ID, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, map[string]any{"attempt": 1, "files": []any{"a.go"}}, logs[0].ExtraData)
}

func TestGetPBIDetail(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	project := mustProject(t, svc, "Shop")
	feature := mustFeature(t, svc, project.ID, "Cart", 0)
	pbi := mustPBI(t, svc, feature.ID, "API")

	detail, err := svc.GetPBIDetail(ctx, pbi.ID)
	require.NoError(t, err)
	assert.Equal(t, pbi, detail.PBI)
	assert.Nil(t, detail.PRURL)

	_, err = svc.UpdateProject(ctx, project.ID, domain.ProjectPatch{
		GithubRepoURL: domain.Some("https://github.com/org/repo"),
	})
	require.NoError(t, err)
	_, err = svc.UpdatePBI(ctx, pbi.ID, domain.PBIPatch{PRNumber: domain.Some(9)})
	require.NoError(t, err)

	detail, err = svc.GetPBIDetail(ctx, pbi.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.PRURL)
	assert.Equal(t, "https://github.com/org/repo/pull/9", *detail.PRURL)

	_, err = svc.GetPBIDetail(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func mustProject(t *testing.T, svc service.Service, name string) domain.Project {
	t.Helper()
	project, err := svc.CreateProject(context.Background(), domain.NewProject{Name: name, Epic: "epic for " + name})
	require.NoError(t, err)
	return project
}

func mustFeature(t *testing.T, svc service.Service, projectID uuid.UUID, name string, order int) domain.Feature {
	t.Helper()
	feature, err := svc.CreateFeature(context.Background(), domain.NewFeature{
		ProjectID:   projectID,
		Name:        name,
		Description: "description of " + name,
		Order:       order,
	})
	require.NoError(t, err)
	return feature
}

func mustPBI(t *testing.T, svc service.Service, featureID uuid.UUID, title string) domain.PBI {
	t.Helper()
	pbi, err := svc.CreatePBI(context.Background(), domain.NewPBI{
		FeatureID:   featureID,
		Title:       title,
		Description: "description of " + title,
		Type:        domain.PBIBackend,
	})
	require.NoError(t, err)
	return pbi
}

func mustLog(t *testing.T, svc service.Service, projectID uuid.UUID, pbiID *uuid.UUID) domain.AgentLog {
	t.Helper()
	entry, err := svc.AppendAgentLog(context.Background(), domain.NewAgentLog{
		ProjectID:   projectID,
		PBIID:       pbiID,
		AgentName:   "planner",
		MessageType: domain.MessageThought,
		Content:     "thinking",
	})
	require.NoError(t, err)
	return entry
}
