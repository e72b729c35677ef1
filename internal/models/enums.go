package models

// Role is an organization-wide role carried on every profile and inside
// every JWT. Authorization decisions compare against these values only.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleManager       Role = "manager"
	RoleWorker        Role = "worker"
)

// Privileged reports whether the role sees unfiltered collections.
// Everyone else only sees rows they own (creator/assignee,
// sender/receiver).
func (r Role) Privileged() bool {
	return r == RoleAdministrator || r == RoleManager
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleManager, RoleWorker:
		return true
	}
	return false
}

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// FundStatus is strictly one-directional: active → calculated → distributed.
type FundStatus string

const (
	FundActive      FundStatus = "active"
	FundCalculated  FundStatus = "calculated"
	FundDistributed FundStatus = "distributed"
)

// fundRank orders fund statuses so transitions can be checked as a
// strict forward step.
var fundRank = map[FundStatus]int{
	FundActive:      0,
	FundCalculated:  1,
	FundDistributed: 2,
}

// CanTransition reports whether a fund may move from s to next. Only the
// immediate next stage is allowed; skipping or going back is not.
func (s FundStatus) CanTransition(next FundStatus) bool {
	from, ok := fundRank[s]
	if !ok {
		return false
	}
	to, ok := fundRank[next]
	if !ok {
		return false
	}
	return to == from+1
}

// Display labels. Every screen consults these tables instead of
// translating enum values inline.
var (
	roleLabels = map[Role]string{
		RoleAdministrator: "Administrator",
		RoleManager:       "Manager",
		RoleWorker:        "Worker",
	}
	statusLabels = map[TaskStatus]string{
		StatusPending:    "Pending",
		StatusInProgress: "In Progress",
		StatusCompleted:  "Completed",
	}
	priorityLabels = map[TaskPriority]string{
		PriorityHigh:   "High",
		PriorityMedium: "Medium",
		PriorityLow:    "Low",
	}
	fundStatusLabels = map[FundStatus]string{
		FundActive:      "Active",
		FundCalculated:  "Calculated",
		FundDistributed: "Distributed",
	}
)

func (r Role) Label() string         { return roleLabels[r] }
func (s TaskStatus) Label() string   { return statusLabels[s] }
func (p TaskPriority) Label() string { return priorityLabels[p] }
func (s FundStatus) Label() string   { return fundStatusLabels[s] }
