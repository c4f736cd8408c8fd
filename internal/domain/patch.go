package domain

import (
	"bytes"
	"encoding/json"
)

// Nullable is a merge-patch field backed by a nullable column. Set reports
// whether the key was present in the payload; a present null clears the column.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n Nullable[T]) applyTo(dst **T) {
	if !n.Set {
		return
	}
	if n.Value == nil {
		*dst = nil
		return
	}
	v := *n.Value
	*dst = &v
}

// ProjectPatch is a merge patch: nil pointers and unset Nullables leave the
// stored value untouched.
type ProjectPatch struct {
	Name           *string          `json:"name" validate:"omitnil,min=1,max=255"`
	Epic           *string          `json:"epic" validate:"omitnil,min=1"`
	Status         *ProjectStatus   `json:"status" validate:"omitnil,enum"`
	GithubRepoURL  Nullable[string] `json:"github_repo_url"`
	GithubRepoName Nullable[string] `json:"github_repo_name"`
}

func (p ProjectPatch) Apply(dst *Project) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Epic != nil {
		dst.Epic = *p.Epic
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
	p.GithubRepoURL.applyTo(&dst.GithubRepoURL)
	p.GithubRepoName.applyTo(&dst.GithubRepoName)
}

type FeaturePatch struct {
	Name        *string          `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string          `json:"description" validate:"omitnil,min=1"`
	Status      *FeatureStatus   `json:"status" validate:"omitnil,enum"`
	BranchName  Nullable[string] `json:"branch_name"`
	Order       *int             `json:"order" validate:"omitnil,min=0"`
}

func (p FeaturePatch) Apply(dst *Feature) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
	p.BranchName.applyTo(&dst.BranchName)
	if p.Order != nil {
		dst.Order = *p.Order
	}
}

// PBIPatch updates a PBI. The blocked-by link is changed through SetBlocker only.
type PBIPatch struct {
	Title         *string            `json:"title" validate:"omitnil,min=1,max=255"`
	Description   *string            `json:"description" validate:"omitnil,min=1"`
	Type          *PBIType           `json:"type" validate:"omitnil,enum"`
	Status        *PBIStatus         `json:"status" validate:"omitnil,enum"`
	AssignedAgent Nullable[string]   `json:"assigned_agent"`
	BranchName    Nullable[string]   `json:"branch_name"`
	PRNumber      Nullable[int]      `json:"pr_number"`
	PRStatus      Nullable[PRStatus] `json:"pr_status"`
	Order         *int               `json:"order" validate:"omitnil,min=0"`
}

func (p PBIPatch) Apply(dst *PBI) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Type != nil {
		dst.Type = *p.Type
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
	p.AssignedAgent.applyTo(&dst.AssignedAgent)
	p.BranchName.applyTo(&dst.BranchName)
	p.PRNumber.applyTo(&dst.PRNumber)
	p.PRStatus.applyTo(&dst.PRStatus)
	if p.Order != nil {
		dst.Order = *p.Order
	}
}
