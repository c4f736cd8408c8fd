package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"geonosis/internal/domain"
	"geonosis/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var _ storage.Tx = (*pgTx)(nil)

type pgTx struct {
	tx pgx.Tx
}

const projectColumns = `id, name, epic, type, status, github_repo_url, github_repo_name, created_at, updated_at`

func scanProject(row pgx.Row) (domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.Name, &p.Epic, &p.Type, &p.Status,
		&p.GithubRepoURL, &p.GithubRepoName, &p.CreatedAt, &p.UpdatedAt)
	p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()
	return p, err
}

func (t *pgTx) InsertProject(ctx context.Context, p domain.Project) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.Name, p.Epic, string(p.Type), string(p.Status),
		p.GithubRepoURL, p.GithubRepoName, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return translateError("insert project", err)
	}
	return nil
}

func (t *pgTx) GetProject(ctx context.Context, id uuid.UUID) (domain.Project, error) {
	p, err := scanProject(t.tx.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Project{}, domain.NewNotFound(domain.EntityProject, id)
		}
		return domain.Project{}, translateError("get project", err)
	}
	return p, nil
}

func (t *pgTx) ListProjects(ctx context.Context) ([]domain.ProjectSummary, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT p.id, p.name, p.type, p.status, p.created_at, COUNT(f.id)
		FROM projects p
		LEFT JOIN features f ON f.project_id = p.id
		GROUP BY p.id
		ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, translateError("list projects", err)
	}
	defer rows.Close()

	result := []domain.ProjectSummary{}
	for rows.Next() {
		var s domain.ProjectSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Type, &s.Status, &s.CreatedAt, &s.FeatureCount); err != nil {
			return nil, translateError("list projects", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		result = append(result, s)
	}
	if rows.Err() != nil {
		return nil, translateError("list projects", rows.Err())
	}
	return result, nil
}

func (t *pgTx) UpdateProject(ctx context.Context, p domain.Project) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE projects
		SET name = $2,
		    epic = $3,
		    type = $4,
		    status = $5,
		    github_repo_url = $6,
		    github_repo_name = $7,
		    updated_at = $8
		WHERE id = $1
	`, p.ID, p.Name, p.Epic, string(p.Type), string(p.Status),
		p.GithubRepoURL, p.GithubRepoName, p.UpdatedAt)
	if err != nil {
		return translateError("update project", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound(domain.EntityProject, p.ID)
	}
	return nil
}

func (t *pgTx) DeleteProject(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return false, translateError("delete project", err)
	}
	return tag.RowsAffected() > 0, nil
}

const featureColumns = `id, project_id, name, description, status, branch_name, "order", created_at, updated_at`

func scanFeature(row pgx.Row) (domain.Feature, error) {
	var f domain.Feature
	err := row.Scan(&f.ID, &f.ProjectID, &f.Name, &f.Description, &f.Status,
		&f.BranchName, &f.Order, &f.CreatedAt, &f.UpdatedAt)
	f.CreatedAt, f.UpdatedAt = f.CreatedAt.UTC(), f.UpdatedAt.UTC()
	return f, err
}

func (t *pgTx) InsertFeature(ctx context.Context, f domain.Feature) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO features (`+featureColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, f.ID, f.ProjectID, f.Name, f.Description, string(f.Status),
		f.BranchName, f.Order, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return translateError("insert feature", err)
	}
	return nil
}

func (t *pgTx) GetFeature(ctx context.Context, id uuid.UUID) (domain.Feature, error) {
	f, err := scanFeature(t.tx.QueryRow(ctx, `SELECT `+featureColumns+` FROM features WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Feature{}, domain.NewNotFound(domain.EntityFeature, id)
		}
		return domain.Feature{}, translateError("get feature", err)
	}
	return f, nil
}

func (t *pgTx) ListFeatures(ctx context.Context, projectID uuid.UUID) ([]domain.FeatureSummary, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT f.id, f.name, f.status, f.branch_name, f."order", COUNT(p.id)
		FROM features f
		LEFT JOIN pbis p ON p.feature_id = f.id
		WHERE f.project_id = $1
		GROUP BY f.id
		ORDER BY f."order" ASC, f.created_at ASC`, projectID)
	if err != nil {
		return nil, translateError("list features", err)
	}
	defer rows.Close()

	result := []domain.FeatureSummary{}
	for rows.Next() {
		var s domain.FeatureSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Status, &s.BranchName, &s.Order, &s.PBICount); err != nil {
			return nil, translateError("list features", err)
		}
		result = append(result, s)
	}
	if rows.Err() != nil {
		return nil, translateError("list features", rows.Err())
	}
	return result, nil
}

func (t *pgTx) MaxFeatureOrder(ctx context.Context, projectID uuid.UUID) (int, bool, error) {
	var maxOrder *int
	err := t.tx.QueryRow(ctx, `SELECT MAX("order") FROM features WHERE project_id = $1`, projectID).Scan(&maxOrder)
	if err != nil {
		return 0, false, translateError("max feature order", err)
	}
	if maxOrder == nil {
		return 0, false, nil
	}
	return *maxOrder, true, nil
}

func (t *pgTx) UpdateFeature(ctx context.Context, f domain.Feature) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE features
		SET name = $2,
		    description = $3,
		    status = $4,
		    branch_name = $5,
		    "order" = $6,
		    updated_at = $7
		WHERE id = $1
	`, f.ID, f.Name, f.Description, string(f.Status), f.BranchName, f.Order, f.UpdatedAt)
	if err != nil {
		return translateError("update feature", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound(domain.EntityFeature, f.ID)
	}
	return nil
}

func (t *pgTx) DeleteFeature(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM features WHERE id = $1`, id)
	if err != nil {
		return false, translateError("delete feature", err)
	}
	return tag.RowsAffected() > 0, nil
}

const pbiColumns = `id, feature_id, title, description, type, status, assigned_agent, branch_name,
	pr_number, pr_status, blocked_by_id, "order", created_at, updated_at`

func scanPBI(row pgx.Row) (domain.PBI, error) {
	var (
		p        domain.PBI
		prStatus *string
	)
	err := row.Scan(&p.ID, &p.FeatureID, &p.Title, &p.Description, &p.Type, &p.Status,
		&p.AssignedAgent, &p.BranchName, &p.PRNumber, &prStatus, &p.BlockedByID,
		&p.Order, &p.CreatedAt, &p.UpdatedAt)
	if prStatus != nil {
		s := domain.PRStatus(*prStatus)
		p.PRStatus = &s
	}
	p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()
	return p, err
}

func prStatusArg(s *domain.PRStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func (t *pgTx) queryPBIs(ctx context.Context, op, where string, arg any) ([]domain.PBI, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+pbiColumns+`
		FROM pbis
		WHERE `+where+`
		ORDER BY "order" ASC, created_at ASC`, arg)
	if err != nil {
		return nil, translateError(op, err)
	}
	defer rows.Close()

	result := []domain.PBI{}
	for rows.Next() {
		p, err := scanPBI(rows)
		if err != nil {
			return nil, translateError(op, err)
		}
		result = append(result, p)
	}
	if rows.Err() != nil {
		return nil, translateError(op, rows.Err())
	}
	return result, nil
}

func (t *pgTx) InsertPBI(ctx context.Context, p domain.PBI) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO pbis (`+pbiColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, p.ID, p.FeatureID, p.Title, p.Description, string(p.Type), string(p.Status),
		p.AssignedAgent, p.BranchName, p.PRNumber, prStatusArg(p.PRStatus), p.BlockedByID,
		p.Order, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return translateError("insert pbi", err)
	}
	return nil
}

func (t *pgTx) GetPBI(ctx context.Context, id uuid.UUID) (domain.PBI, error) {
	p, err := scanPBI(t.tx.QueryRow(ctx, `SELECT `+pbiColumns+` FROM pbis WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PBI{}, domain.NewNotFound(domain.EntityPBI, id)
		}
		return domain.PBI{}, translateError("get pbi", err)
	}
	return p, nil
}

func (t *pgTx) ListPBIs(ctx context.Context, featureID uuid.UUID) ([]domain.PBI, error) {
	return t.queryPBIs(ctx, "list pbis", "feature_id = $1", featureID)
}

func (t *pgTx) MaxPBIOrder(ctx context.Context, featureID uuid.UUID) (int, bool, error) {
	var maxOrder *int
	err := t.tx.QueryRow(ctx, `SELECT MAX("order") FROM pbis WHERE feature_id = $1`, featureID).Scan(&maxOrder)
	if err != nil {
		return 0, false, translateError("max pbi order", err)
	}
	if maxOrder == nil {
		return 0, false, nil
	}
	return *maxOrder, true, nil
}

func (t *pgTx) UpdatePBI(ctx context.Context, p domain.PBI) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE pbis
		SET title = $2,
		    description = $3,
		    type = $4,
		    status = $5,
		    assigned_agent = $6,
		    branch_name = $7,
		    pr_number = $8,
		    pr_status = $9,
		    blocked_by_id = $10,
		    "order" = $11,
		    updated_at = $12
		WHERE id = $1
	`, p.ID, p.Title, p.Description, string(p.Type), string(p.Status),
		p.AssignedAgent, p.BranchName, p.PRNumber, prStatusArg(p.PRStatus), p.BlockedByID,
		p.Order, p.UpdatedAt)
	if err != nil {
		return translateError("update pbi", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound(domain.EntityPBI, p.ID)
	}
	return nil
}

func (t *pgTx) DeletePBI(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM pbis WHERE id = $1`, id)
	if err != nil {
		return false, translateError("delete pbi", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *pgTx) DeletePBIs(ctx context.Context, featureID uuid.UUID) (int, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM pbis WHERE feature_id = $1`, featureID)
	if err != nil {
		return 0, translateError("delete pbis", err)
	}
	return int(tag.RowsAffected()), nil
}

func (t *pgTx) ListBlocking(ctx context.Context, id uuid.UUID) ([]domain.PBI, error) {
	return t.queryPBIs(ctx, "list blocking", "blocked_by_id = $1", id)
}

func (t *pgTx) ClearBlockedBy(ctx context.Context, ids []uuid.UUID, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := t.tx.Exec(ctx, `
		UPDATE pbis
		SET blocked_by_id = NULL,
		    updated_at = $2
		WHERE blocked_by_id = ANY($1::uuid[])
	`, uuidStrings(ids), now)
	if err != nil {
		return translateError("clear blocked_by", err)
	}
	return nil
}

const agentLogColumns = `id, project_id, pbi_id, agent_name, message_type, content, extra_data, created_at, updated_at`

func (t *pgTx) InsertAgentLog(ctx context.Context, l domain.AgentLog) error {
	extra := l.ExtraData
	if extra == nil {
		extra = map[string]any{}
	}
	payload, err := json.Marshal(extra)
	if err != nil {
		return translateError("encode extra_data", err)
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO agent_logs (`+agentLogColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, l.ID, l.ProjectID, l.PBIID, l.AgentName, string(l.MessageType), l.Content,
		payload, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return translateError("insert agent log", err)
	}
	return nil
}

func (t *pgTx) ListAgentLogs(ctx context.Context, projectID uuid.UUID, pbiID *uuid.UUID) ([]domain.AgentLog, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+agentLogColumns+`
		FROM agent_logs
		WHERE project_id = $1
		  AND ($2::uuid IS NULL OR pbi_id = $2::uuid)
		ORDER BY created_at ASC`, projectID, pbiID)
	if err != nil {
		return nil, translateError("list agent logs", err)
	}
	defer rows.Close()

	result := []domain.AgentLog{}
	for rows.Next() {
		var (
			l       domain.AgentLog
			payload []byte
		)
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.PBIID, &l.AgentName, &l.MessageType,
			&l.Content, &payload, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, translateError("list agent logs", err)
		}
		l.ExtraData = map[string]any{}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &l.ExtraData); err != nil {
				return nil, translateError("decode extra_data", err)
			}
		}
		l.CreatedAt, l.UpdatedAt = l.CreatedAt.UTC(), l.UpdatedAt.UTC()
		result = append(result, l)
	}
	if rows.Err() != nil {
		return nil, translateError("list agent logs", rows.Err())
	}
	return result, nil
}

func (t *pgTx) DetachAgentLogs(ctx context.Context, pbiIDs []uuid.UUID, now time.Time) error {
	if len(pbiIDs) == 0 {
		return nil
	}
	_, err := t.tx.Exec(ctx, `
		UPDATE agent_logs
		SET pbi_id = NULL,
		    updated_at = $2
		WHERE pbi_id = ANY($1::uuid[])
	`, uuidStrings(pbiIDs), now)
	if err != nil {
		return translateError("detach agent logs", err)
	}
	return nil
}

func (t *pgTx) DeleteAgentLogs(ctx context.Context, projectID uuid.UUID) (int, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM agent_logs WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, translateError("delete agent logs", err)
	}
	return int(tag.RowsAffected()), nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
