package domain

// Status values are a flat enumeration. Any value may replace any other through
// an update; the order listed below is the intended narrative path only.

type ProjectType string

const (
	ProjectTypeNew             ProjectType = "NEW_PROJECT"
	ProjectTypeExistingBug     ProjectType = "EXISTING_PROJECT_BUG"
	ProjectTypeExistingFeature ProjectType = "EXISTING_PROJECT_FEATURE"
)

func (t ProjectType) Valid() bool {
	switch t {
	case ProjectTypeNew, ProjectTypeExistingBug, ProjectTypeExistingFeature:
		return true
	}
	return false
}

type ProjectStatus string

const (
	ProjectDraft                 ProjectStatus = "DRAFT"
	ProjectAnalyzing             ProjectStatus = "ANALYZING"
	ProjectFeaturesPendingReview ProjectStatus = "FEATURES_PENDING_REVIEW"
	ProjectFeaturesRejected      ProjectStatus = "FEATURES_REJECTED"
	ProjectApproved              ProjectStatus = "APPROVED"
	ProjectRepoCreating          ProjectStatus = "REPO_CREATING"
	ProjectRepoCreated           ProjectStatus = "REPO_CREATED"
	ProjectPBIsCreating          ProjectStatus = "PBIS_CREATING"
	ProjectInProgress            ProjectStatus = "IN_PROGRESS"
	ProjectCompleted             ProjectStatus = "COMPLETED"
	ProjectFailed                ProjectStatus = "FAILED"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectDraft, ProjectAnalyzing, ProjectFeaturesPendingReview, ProjectFeaturesRejected,
		ProjectApproved, ProjectRepoCreating, ProjectRepoCreated, ProjectPBIsCreating,
		ProjectInProgress, ProjectCompleted, ProjectFailed:
		return true
	}
	return false
}

func (s ProjectStatus) Terminal() bool {
	return s == ProjectCompleted || s == ProjectFailed
}

type FeatureStatus string

const (
	FeaturePending    FeatureStatus = "PENDING"
	FeatureInProgress FeatureStatus = "IN_PROGRESS"
	FeaturePRPending  FeatureStatus = "PR_PENDING"
	FeatureCompleted  FeatureStatus = "COMPLETED"
)

func (s FeatureStatus) Valid() bool {
	switch s {
	case FeaturePending, FeatureInProgress, FeaturePRPending, FeatureCompleted:
		return true
	}
	return false
}

func (s FeatureStatus) Terminal() bool {
	return s == FeatureCompleted
}

type PBIType string

const (
	PBIBackend  PBIType = "BACKEND"
	PBIFrontend PBIType = "FRONTEND"
)

func (t PBIType) Valid() bool {
	return t == PBIBackend || t == PBIFrontend
}

type PBIStatus string

const (
	PBIPending            PBIStatus = "PENDING"
	PBIInProgress         PBIStatus = "IN_PROGRESS"
	PBIPRCreated          PBIStatus = "PR_CREATED"
	PBIPRChangesRequested PBIStatus = "PR_CHANGES_REQUESTED"
	PBIPRApproved         PBIStatus = "PR_APPROVED"
	PBICompleted          PBIStatus = "COMPLETED"
	PBIBlocked            PBIStatus = "BLOCKED"
	PBIFailed             PBIStatus = "FAILED"
)

func (s PBIStatus) Valid() bool {
	switch s {
	case PBIPending, PBIInProgress, PBIPRCreated, PBIPRChangesRequested,
		PBIPRApproved, PBICompleted, PBIBlocked, PBIFailed:
		return true
	}
	return false
}

func (s PBIStatus) Terminal() bool {
	return s == PBICompleted || s == PBIFailed
}

// PRStatus tracks the pull request attached to a PBI. It is a sub-state, not an entity.
type PRStatus string

const (
	PROpen             PRStatus = "OPEN"
	PRChangesRequested PRStatus = "CHANGES_REQUESTED"
	PRApproved         PRStatus = "APPROVED"
	PRMerged           PRStatus = "MERGED"
	PRClosed           PRStatus = "CLOSED"
)

func (s PRStatus) Valid() bool {
	switch s {
	case PROpen, PRChangesRequested, PRApproved, PRMerged, PRClosed:
		return true
	}
	return false
}

func (s PRStatus) Terminal() bool {
	return s == PRMerged || s == PRClosed
}

type AgentMessageType string

const (
	MessageThought       AgentMessageType = "THOUGHT"
	MessageAction        AgentMessageType = "ACTION"
	MessageCode          AgentMessageType = "CODE"
	MessageError         AgentMessageType = "ERROR"
	MessageCommunication AgentMessageType = "COMMUNICATION"
)

func (t AgentMessageType) Valid() bool {
	switch t {
	case MessageThought, MessageAction, MessageCode, MessageError, MessageCommunication:
		return true
	}
	return false
}
