package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskdesk/taskdesk/internal/middleware"
	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/realtime"
	"github.com/taskdesk/taskdesk/internal/repository"
	"go.uber.org/zap"
)

type TeamHandler struct {
	teams   repository.TeamRepository
	changes ChangePublisher
	logger  *zap.Logger
}

func NewTeamHandler(teams repository.TeamRepository, changes ChangePublisher, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{teams: teams, changes: changes, logger: logger}
}

func (h *TeamHandler) publish(c *gin.Context, action string, id uuid.UUID) {
	h.changes.Publish(c.Request.Context(), realtime.Event{
		Table:   realtime.TableTeams,
		Action:  action,
		RowID:   id.String(),
		ActorID: middleware.GetUserID(c),
	})
}

// List handles GET /v1/teams.
func (h *TeamHandler) List(c *gin.Context) {
	teams, err := h.teams.List(c.Request.Context())
	if err != nil {
		fail(c, h.logger, "list teams", err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

type createTeamRequest struct {
	Name        string      `json:"name" binding:"required,min=1,max=120"`
	Description *string     `json:"description" binding:"omitempty,max=2000"`
	MemberIDs   []uuid.UUID `json:"member_ids"`
}

// Create handles POST /v1/teams. The creator always lands in the
// membership set as team admin, on top of the selected members.
func (h *TeamHandler) Create(c *gin.Context) {
	var req createTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.teams.Create(c.Request.Context(), req.Name, req.Description, middleware.GetUserID(c), req.MemberIDs)
	if err != nil {
		fail(c, h.logger, "create team", err)
		return
	}

	h.publish(c, realtime.ActionInsert, team.ID)
	c.JSON(http.StatusCreated, team)
}

type updateTeamRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=120"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// Update handles PUT /v1/teams/:id.
func (h *TeamHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team ID"})
		return
	}

	var req updateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team, err := h.teams.Update(c.Request.Context(), viewerFrom(c), id, req.Name, req.Description)
	if err != nil {
		fail(c, h.logger, "update team", err)
		return
	}

	h.publish(c, realtime.ActionUpdate, id)
	c.JSON(http.StatusOK, team)
}

// Delete handles DELETE /v1/teams/:id.
func (h *TeamHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team ID"})
		return
	}

	if err := h.teams.Delete(c.Request.Context(), viewerFrom(c), id); err != nil {
		fail(c, h.logger, "delete team", err)
		return
	}

	h.publish(c, realtime.ActionDelete, id)
	c.Status(http.StatusNoContent)
}

// Members handles GET /v1/teams/:id/members.
func (h *TeamHandler) Members(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team ID"})
		return
	}

	members, err := h.teams.Members(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, "list team members", err)
		return
	}
	c.JSON(http.StatusOK, members)
}

type addMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Role   string    `json:"role" binding:"omitempty,oneof=admin member"`
}

// AddMember handles POST /v1/teams/:id/members. Idempotent.
func (h *TeamHandler) AddMember(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team ID"})
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role := req.Role
	if role == "" {
		role = models.TeamRoleMember
	}

	if err := h.teams.AddMember(c.Request.Context(), id, req.UserID, role); err != nil {
		fail(c, h.logger, "add team member", err)
		return
	}

	h.publish(c, realtime.ActionUpdate, id)
	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

// RemoveMember handles DELETE /v1/teams/:id/members/:userID.
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team ID"})
		return
	}
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if err := h.teams.RemoveMember(c.Request.Context(), id, userID); err != nil {
		fail(c, h.logger, "remove team member", err)
		return
	}

	h.publish(c, realtime.ActionUpdate, id)
	c.Status(http.StatusNoContent)
}
