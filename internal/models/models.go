package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a person in the organization. PasswordHash never leaves the
// server; the json tag strips it from every response.
type Profile struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	AvatarURL    *string   `json:"avatar_url"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Task rows reference profiles by ID; handlers join sender/assignee
// names in, models stay flat like their tables.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date"`
	AssignedTo  *uuid.UUID   `json:"assigned_to"`
	CreatedBy   uuid.UUID    `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Joined display names, populated by list queries.
	AssigneeName *string `json:"assignee_name,omitempty"`
	CreatorName  string  `json:"creator_name,omitempty"`
}

type Team struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`

	CreatorName string `json:"creator_name,omitempty"`
	MemberCount int    `json:"member_count"`
}

// TeamMember is the join table between teams and profiles. Role here is
// per-membership ("admin" or "member"), distinct from the org-wide Role.
type TeamMember struct {
	TeamID   uuid.UUID `json:"team_id"`
	UserID   uuid.UUID `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`

	Profile *Profile `json:"profile,omitempty"`
}

const (
	TeamRoleAdmin  = "admin"
	TeamRoleMember = "member"
)

// Message uses bigserial: messages are the highest-volume table and a
// single sequence gives a natural cursor ordering.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`

	SenderName   string `json:"sender_name,omitempty"`
	ReceiverName string `json:"receiver_name,omitempty"`
}

// Contact is a correspondent in the messages screen sidebar, with the
// count of messages from them the caller has not read yet.
type Contact struct {
	Profile
	UnreadCount int `json:"unread_count"`
}

type PremiumFund struct {
	ID          uuid.UUID  `json:"id"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	TotalAmount float64    `json:"total_fund_amount"`
	Status      FundStatus `json:"status"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// EmployeeMetric holds the raw performance counters for one employee in
// one fund period. NormalizedScore and PremiumAmount are written only by
// the calculate_premium_distribution stored procedure.
type EmployeeMetric struct {
	ID                      uuid.UUID `json:"id"`
	UserID                  uuid.UUID `json:"user_id"`
	PeriodStart             time.Time `json:"period_start"`
	PeriodEnd               time.Time `json:"period_end"`
	TaskCompletionFrequency float64   `json:"task_completion_frequency"`
	TasksNotCompletedOnTime int       `json:"tasks_not_completed_on_time"`
	TasksCompletedOnTime    int       `json:"tasks_completed_on_time"`
	TotalContractValue      float64   `json:"total_contract_value"`
	NumberOfDelays          int       `json:"number_of_delays"`
	NormalizedScore         float64   `json:"normalized_score"`
	PremiumAmount           float64   `json:"premium_amount"`

	FullName string `json:"full_name,omitempty"`
	UserRole Role   `json:"user_role,omitempty"`
}

// AppSettings is the singleton tenant-wide display configuration.
type AppSettings struct {
	AppName      string    `json:"app_name"`
	PrimaryColor string    `json:"primary_color"`
	LogoURL      *string   `json:"logo_url"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TaskHistory is an audit row shown on the profile screen.
type TaskHistory struct {
	ID        uuid.UUID  `json:"id"`
	TaskID    *uuid.UUID `json:"task_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Action    string     `json:"action"`
	CreatedAt time.Time  `json:"created_at"`

	TaskTitle *string `json:"task_title,omitempty"`
}
