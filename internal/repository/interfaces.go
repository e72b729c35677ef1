package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskdesk/taskdesk/internal/models"
)

// Viewer identifies the caller of a data-access operation. Repositories
// never trust the HTTP layer to pre-filter: ownership predicates are
// built into the SQL from the viewer, so a guessed row ID alone cannot
// read or mutate someone else's data.
type Viewer struct {
	ID   uuid.UUID
	Role models.Role
}

// Privileged viewers (Administrator, Manager) see whole collections;
// everyone else sees only rows they own.
func (v Viewer) Privileged() bool { return v.Role.Privileged() }

// ProfilePatch carries the fields a profile owner may merge into their
// own record. Nil means "leave unchanged".
type ProfilePatch struct {
	FullName  *string
	AvatarURL *string
	// ClearAvatar removes the avatar; distinct from a nil AvatarURL,
	// which leaves it alone.
	ClearAvatar bool
}

// TaskFilter is the explicit UI filter set for task listings. Ownership
// scoping is NOT part of the filter; it comes from the Viewer.
type TaskFilter struct {
	Status       models.TaskStatus
	Priority     models.TaskPriority
	AssignedTo   *uuid.UUID
	CreatedSince *time.Time
	DueBefore    *time.Time
	Search       string
	Limit        int
}

// TaskPatch carries the updatable task fields. Nil means unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	DueDate     *time.Time
	ClearDue    bool
	AssignedTo  *uuid.UUID
	ClearAssign bool
}

type ProfileRepository interface {
	// Create inserts a new profile. Returns a Conflict error when the
	// email is already registered.
	Create(ctx context.Context, email, fullName, passwordHash string, role models.Role) (*models.Profile, error)

	// GetByID returns nil, nil when not found.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)

	// GetByEmail looks a profile up for login. nil, nil when not found.
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)

	// List returns every profile ordered by name, for pickers and the
	// admin panel.
	List(ctx context.Context) ([]models.Profile, error)

	// SearchByName does a case-insensitive substring match, excluding
	// the searcher themselves.
	SearchByName(ctx context.Context, query string, exclude uuid.UUID, limit int) ([]models.Profile, error)

	// Update merges patch fields into the caller's own row.
	Update(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*models.Profile, error)

	// SetRole is the admin panel's role change.
	SetRole(ctx context.Context, id uuid.UUID, role models.Role) error
}

type TaskRepository interface {
	// List applies the viewer's ownership scope plus the explicit
	// filter. Non-privileged viewers only get rows where they are
	// creator or assignee.
	List(ctx context.Context, viewer Viewer, filter TaskFilter) ([]models.Task, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)

	Create(ctx context.Context, task *models.Task) (*models.Task, error)

	// Update is ownership-scoped in SQL: non-privileged viewers can only
	// touch rows where they are creator or assignee. Zero affected rows
	// surfaces as NotFound.
	Update(ctx context.Context, viewer Viewer, id uuid.UUID, patch TaskPatch) (*models.Task, error)

	// Delete is scoped to privileged viewers or the creator.
	Delete(ctx context.Context, viewer Viewer, id uuid.UUID) error

	// CountByStatus feeds the dashboard cards, same ownership scope as
	// List.
	CountByStatus(ctx context.Context, viewer Viewer) (map[models.TaskStatus]int, error)
}

type TeamRepository interface {
	// List returns all teams with creator names and member counts.
	List(ctx context.Context) ([]models.Team, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error)

	// Create inserts the team and its initial membership in one
	// transaction: the creator as team admin plus each given member.
	Create(ctx context.Context, name string, description *string, createdBy uuid.UUID, memberIDs []uuid.UUID) (*models.Team, error)

	// Update is scoped to privileged viewers or the creator.
	Update(ctx context.Context, viewer Viewer, id uuid.UUID, name string, description *string) (*models.Team, error)

	// Delete cascades memberships. Same scope as Update.
	Delete(ctx context.Context, viewer Viewer, id uuid.UUID) error

	// Members returns memberships with profiles joined in.
	Members(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error)

	// AddMember is idempotent: adding an existing member is a no-op.
	AddMember(ctx context.Context, teamID, userID uuid.UUID, role string) error

	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
}

type MessageRepository interface {
	// Contacts returns the caller's distinct correspondents, most
	// recent conversation first, each with its unread count.
	Contacts(ctx context.Context, userID uuid.UUID) ([]models.Contact, error)

	// Conversation returns both directions between the two users,
	// oldest first, with sender/receiver names joined.
	Conversation(ctx context.Context, userID, otherID uuid.UUID) ([]models.Message, error)

	Create(ctx context.Context, senderID, receiverID uuid.UUID, content string) (*models.Message, error)

	// UpdateContent is sender-scoped in SQL; editing does not reset the
	// read flag.
	UpdateContent(ctx context.Context, id int64, senderID uuid.UUID, content string) (*models.Message, error)

	// Delete is sender-scoped in SQL. Returns the deleted message's
	// receiver so the change event can be scoped to both participants.
	Delete(ctx context.Context, id int64, senderID uuid.UUID) (uuid.UUID, error)

	// MarkConversationRead flips read=false→true on messages the
	// receiver got from one sender. Returns how many rows flipped.
	MarkConversationRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error)

	// UnreadTotal counts unread messages addressed to the user.
	UnreadTotal(ctx context.Context, userID uuid.UUID) (int, error)
}

type PremiumRepository interface {
	ListFunds(ctx context.Context) ([]models.PremiumFund, error)

	GetFund(ctx context.Context, id uuid.UUID) (*models.PremiumFund, error)

	CreateFund(ctx context.Context, periodStart, periodEnd time.Time, totalAmount float64, createdBy uuid.UUID) (*models.PremiumFund, error)

	// MetricsForPeriod returns metrics matching a fund's period, with
	// profile names joined.
	MetricsForPeriod(ctx context.Context, periodStart, periodEnd time.Time) ([]models.EmployeeMetric, error)

	// AddMetric inserts raw counters; score and amount start at zero
	// until the stored procedure fills them.
	AddMetric(ctx context.Context, metric *models.EmployeeMetric) (*models.EmployeeMetric, error)

	// CalculateDistribution invokes the calculate_premium_distribution
	// stored procedure for a fund. The procedure writes normalized
	// scores and premium amounts and moves the fund to calculated.
	// Scoring is never reimplemented on this side of the boundary.
	CalculateDistribution(ctx context.Context, fundID uuid.UUID) error

	// SetFundStatus performs a guarded transition; anything but the
	// immediate next stage is a Validation error.
	SetFundStatus(ctx context.Context, fundID uuid.UUID, next models.FundStatus) (*models.PremiumFund, error)
}

type SettingsRepository interface {
	// Get returns the singleton row, creating defaults if absent.
	Get(ctx context.Context) (*models.AppSettings, error)

	Update(ctx context.Context, settings models.AppSettings) (*models.AppSettings, error)
}

type HistoryRepository interface {
	// Record appends an audit row. Failures here are logged, never
	// surfaced; history must not fail the action it records.
	Record(ctx context.Context, taskID *uuid.UUID, userID uuid.UUID, action string) error

	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.TaskHistory, error)
}
