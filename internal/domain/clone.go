package domain

// Clone helpers copy every pointer and map an entity holds, so a stored value
// never shares memory with the caller that handed it in or read it out.

func ClonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CloneExtra deep-copies a JSON-shaped payload: nested objects and arrays are
// copied, scalars are immutable and shared.
func CloneExtra(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneJSONValue(v)
	}
	return out
}

func cloneJSONValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneExtra(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneJSONValue(item)
		}
		return out
	default:
		return v
	}
}

func (p Project) Clone() Project {
	p.GithubRepoURL = ClonePtr(p.GithubRepoURL)
	p.GithubRepoName = ClonePtr(p.GithubRepoName)
	return p
}

func (f Feature) Clone() Feature {
	f.BranchName = ClonePtr(f.BranchName)
	return f
}

func (p PBI) Clone() PBI {
	p.AssignedAgent = ClonePtr(p.AssignedAgent)
	p.BranchName = ClonePtr(p.BranchName)
	p.PRNumber = ClonePtr(p.PRNumber)
	p.PRStatus = ClonePtr(p.PRStatus)
	p.BlockedByID = ClonePtr(p.BlockedByID)
	return p
}

func (l AgentLog) Clone() AgentLog {
	l.PBIID = ClonePtr(l.PBIID)
	l.ExtraData = CloneExtra(l.ExtraData)
	return l
}
