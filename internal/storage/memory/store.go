// Package memory keeps every entity in id-keyed maps. A unit of work runs
// against a cloned snapshot that replaces the live state only on success.
// Entities are copied on the way in and on the way out, so callers never hold
// references into stored state.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"geonosis/internal/domain"
	"geonosis/internal/storage"

	"github.com/google/uuid"
)

var _ storage.Repository = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	projects map[uuid.UUID]domain.Project
	features map[uuid.UUID]domain.Feature
	pbis     map[uuid.UUID]domain.PBI
	logs     map[uuid.UUID]domain.AgentLog
}

func New() *Store {
	return &Store{
		state: &state{
			projects: make(map[uuid.UUID]domain.Project),
			features: make(map[uuid.UUID]domain.Feature),
			pbis:     make(map[uuid.UUID]domain.PBI),
			logs:     make(map[uuid.UUID]domain.AgentLog),
		},
	}
}

func (s *Store) InTx(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) Health(ctx context.Context) error {
	return ctx.Err()
}

func (st *state) clone() *state {
	return &state{
		projects: cloneMap(st.projects),
		features: cloneMap(st.features),
		pbis:     cloneMap(st.pbis),
		logs:     cloneMap(st.logs),
	}
}

func cloneMap[V any](m map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type tx struct {
	st *state
}

func (t *tx) InsertProject(_ context.Context, p domain.Project) error {
	t.st.projects[p.ID] = p.Clone()
	return nil
}

func (t *tx) GetProject(_ context.Context, id uuid.UUID) (domain.Project, error) {
	p, ok := t.st.projects[id]
	if !ok {
		return domain.Project{}, domain.NewNotFound(domain.EntityProject, id)
	}
	return p.Clone(), nil
}

func (t *tx) ListProjects(_ context.Context) ([]domain.ProjectSummary, error) {
	counts := make(map[uuid.UUID]int)
	for _, f := range t.st.features {
		counts[f.ProjectID]++
	}

	projects := make([]domain.Project, 0, len(t.st.projects))
	for _, p := range t.st.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})

	result := make([]domain.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		result = append(result, domain.ProjectSummary{
			ID:           p.ID,
			Name:         p.Name,
			Type:         p.Type,
			Status:       p.Status,
			CreatedAt:    p.CreatedAt,
			FeatureCount: counts[p.ID],
		})
	}
	return result, nil
}

func (t *tx) UpdateProject(_ context.Context, p domain.Project) error {
	if _, ok := t.st.projects[p.ID]; !ok {
		return domain.NewNotFound(domain.EntityProject, p.ID)
	}
	t.st.projects[p.ID] = p.Clone()
	return nil
}

func (t *tx) DeleteProject(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := t.st.projects[id]; !ok {
		return false, nil
	}
	delete(t.st.projects, id)
	return true, nil
}

func (t *tx) InsertFeature(_ context.Context, f domain.Feature) error {
	t.st.features[f.ID] = f.Clone()
	return nil
}

func (t *tx) GetFeature(_ context.Context, id uuid.UUID) (domain.Feature, error) {
	f, ok := t.st.features[id]
	if !ok {
		return domain.Feature{}, domain.NewNotFound(domain.EntityFeature, id)
	}
	return f.Clone(), nil
}

func (t *tx) ListFeatures(_ context.Context, projectID uuid.UUID) ([]domain.FeatureSummary, error) {
	counts := make(map[uuid.UUID]int)
	for _, p := range t.st.pbis {
		counts[p.FeatureID]++
	}

	var features []domain.Feature
	for _, f := range t.st.features {
		if f.ProjectID == projectID {
			features = append(features, f)
		}
	}
	sort.Slice(features, func(i, j int) bool {
		if features[i].Order != features[j].Order {
			return features[i].Order < features[j].Order
		}
		return features[i].CreatedAt.Before(features[j].CreatedAt)
	})

	result := make([]domain.FeatureSummary, 0, len(features))
	for _, f := range features {
		result = append(result, domain.FeatureSummary{
			ID:         f.ID,
			Name:       f.Name,
			Status:     f.Status,
			BranchName: domain.ClonePtr(f.BranchName),
			Order:      f.Order,
			PBICount:   counts[f.ID],
		})
	}
	return result, nil
}

func (t *tx) MaxFeatureOrder(_ context.Context, projectID uuid.UUID) (int, bool, error) {
	maxOrder, found := 0, false
	for _, f := range t.st.features {
		if f.ProjectID != projectID {
			continue
		}
		if !found || f.Order > maxOrder {
			maxOrder, found = f.Order, true
		}
	}
	return maxOrder, found, nil
}

func (t *tx) UpdateFeature(_ context.Context, f domain.Feature) error {
	if _, ok := t.st.features[f.ID]; !ok {
		return domain.NewNotFound(domain.EntityFeature, f.ID)
	}
	t.st.features[f.ID] = f.Clone()
	return nil
}

func (t *tx) DeleteFeature(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := t.st.features[id]; !ok {
		return false, nil
	}
	delete(t.st.features, id)
	return true, nil
}

func (t *tx) InsertPBI(_ context.Context, p domain.PBI) error {
	t.st.pbis[p.ID] = p.Clone()
	return nil
}

func (t *tx) GetPBI(_ context.Context, id uuid.UUID) (domain.PBI, error) {
	p, ok := t.st.pbis[id]
	if !ok {
		return domain.PBI{}, domain.NewNotFound(domain.EntityPBI, id)
	}
	return p.Clone(), nil
}

func (t *tx) ListPBIs(_ context.Context, featureID uuid.UUID) ([]domain.PBI, error) {
	return t.filterPBIs(func(p domain.PBI) bool { return p.FeatureID == featureID }), nil
}

func (t *tx) MaxPBIOrder(_ context.Context, featureID uuid.UUID) (int, bool, error) {
	maxOrder, found := 0, false
	for _, p := range t.st.pbis {
		if p.FeatureID != featureID {
			continue
		}
		if !found || p.Order > maxOrder {
			maxOrder, found = p.Order, true
		}
	}
	return maxOrder, found, nil
}

func (t *tx) UpdatePBI(_ context.Context, p domain.PBI) error {
	if _, ok := t.st.pbis[p.ID]; !ok {
		return domain.NewNotFound(domain.EntityPBI, p.ID)
	}
	t.st.pbis[p.ID] = p.Clone()
	return nil
}

func (t *tx) DeletePBI(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := t.st.pbis[id]; !ok {
		return false, nil
	}
	delete(t.st.pbis, id)
	return true, nil
}

func (t *tx) DeletePBIs(_ context.Context, featureID uuid.UUID) (int, error) {
	n := 0
	for id, p := range t.st.pbis {
		if p.FeatureID == featureID {
			delete(t.st.pbis, id)
			n++
		}
	}
	return n, nil
}

func (t *tx) ListBlocking(_ context.Context, id uuid.UUID) ([]domain.PBI, error) {
	return t.filterPBIs(func(p domain.PBI) bool {
		return p.BlockedByID != nil && *p.BlockedByID == id
	}), nil
}

func (t *tx) ClearBlockedBy(_ context.Context, ids []uuid.UUID, now time.Time) error {
	targets := idSet(ids)
	for id, p := range t.st.pbis {
		if p.BlockedByID == nil {
			continue
		}
		if _, ok := targets[*p.BlockedByID]; ok {
			p.BlockedByID = nil
			p.Touch(now)
			t.st.pbis[id] = p
		}
	}
	return nil
}

func (t *tx) filterPBIs(keep func(domain.PBI) bool) []domain.PBI {
	var result []domain.PBI
	for _, p := range t.st.pbis {
		if keep(p) {
			result = append(result, p.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (t *tx) InsertAgentLog(_ context.Context, l domain.AgentLog) error {
	t.st.logs[l.ID] = l.Clone()
	return nil
}

func (t *tx) ListAgentLogs(_ context.Context, projectID uuid.UUID, pbiID *uuid.UUID) ([]domain.AgentLog, error) {
	var result []domain.AgentLog
	for _, l := range t.st.logs {
		if l.ProjectID != projectID {
			continue
		}
		if pbiID != nil && (l.PBIID == nil || *l.PBIID != *pbiID) {
			continue
		}
		result = append(result, l.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (t *tx) DetachAgentLogs(_ context.Context, pbiIDs []uuid.UUID, now time.Time) error {
	targets := idSet(pbiIDs)
	for id, l := range t.st.logs {
		if l.PBIID == nil {
			continue
		}
		if _, ok := targets[*l.PBIID]; ok {
			l.PBIID = nil
			l.Touch(now)
			t.st.logs[id] = l
		}
	}
	return nil
}

func (t *tx) DeleteAgentLogs(_ context.Context, projectID uuid.UUID) (int, error) {
	n := 0
	for id, l := range t.st.logs {
		if l.ProjectID == projectID {
			delete(t.st.logs, id)
			n++
		}
	}
	return n, nil
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
