package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/levelup-backend/internal/http/response"
	"github.com/yungbote/levelup-backend/internal/services"
)

type ClassroomHandler struct {
	classroom services.ClassroomService
}

func NewClassroomHandler(classroom services.ClassroomService) *ClassroomHandler {
	return &ClassroomHandler{classroom: classroom}
}

// POST /api/classes
func (h *ClassroomHandler) CreateClass(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !bindJSON(c, &req) {
		return
	}
	cls, err := h.classroom.CreateClass(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"class": cls})
}

// GET /api/classes lists owned classes for teachers and joined classes for
// students.
func (h *ClassroomHandler) ListClasses(c *gin.Context) {
	classes, err := h.classroom.ListClasses(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"classes": classes})
}

func (h *ClassroomHandler) DeleteClass(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.classroom.DeleteClass(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *ClassroomHandler) Roster(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	members, err := h.classroom.Roster(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"members": members})
}

// POST /api/classes/join
// body: { "code": "K7QZ2M" }
func (h *ClassroomHandler) Join(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if !bindJSON(c, &req) {
		return
	}
	cls, added, err := h.classroom.JoinClass(c.Request.Context(), req.Code)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"class": cls, "joined": added})
}

// POST /api/classes/:id/assignments
func (h *ClassroomHandler) CreateAssignment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		MaxScore    int        `json:"max_score"`
		XPReward    int        `json:"xp_reward"`
		DueAt       *time.Time `json:"due_at"`
	}
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.classroom.CreateAssignment(c.Request.Context(), services.CreateAssignmentInput{
		ClassID:     id,
		Title:       req.Title,
		Description: req.Description,
		MaxScore:    req.MaxScore,
		XPReward:    req.XPReward,
		DueAt:       req.DueAt,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"assignment": a})
}

func (h *ClassroomHandler) ListAssignments(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	list, err := h.classroom.ListAssignments(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assignments": list})
}

// PUT /api/assignments/:id/submission
func (h *ClassroomHandler) Submit(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
		Link    string `json:"link"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.classroom.Submit(c.Request.Context(), services.SubmitAssignmentInput{
		AssignmentID: id,
		Content:      req.Content,
		Link:         req.Link,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submission": sub})
}

// GET /api/assignments/:id/submissions
func (h *ClassroomHandler) ListSubmissions(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	subs, err := h.classroom.ListSubmissions(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submissions": subs})
}

// POST /api/submissions/:id/grade
// body: { "score": 8, "feedback": "...", "xpAward": 20 }
func (h *ClassroomHandler) Grade(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Score    int    `json:"score"`
		Feedback string `json:"feedback"`
		XPAward  *int   `json:"xpAward"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.classroom.Grade(c.Request.Context(), services.GradeSubmissionInput{
		SubmissionID: id,
		Score:        req.Score,
		Feedback:     req.Feedback,
		XPAward:      req.XPAward,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"submission": sub})
}
