package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/levelup-backend/internal/http/response"
	"github.com/yungbote/levelup-backend/internal/services"
)

type PointsHandler struct {
	points services.PointsService
	streak services.StreakService
}

func NewPointsHandler(points services.PointsService, streak services.StreakService) *PointsHandler {
	return &PointsHandler{points: points, streak: streak}
}

// POST /api/points/lesson
// body: { "topic": "fractions", "progress": 60 }
func (ph *PointsHandler) CompleteLesson(c *gin.Context) {
	var req struct {
		Topic    string `json:"topic"`
		Progress *int   `json:"progress"`
	}
	if !bindJSON(c, &req) {
		return
	}
	u, err := ph.points.CompleteLesson(c.Request.Context(), services.LessonInput{Topic: req.Topic, Progress: req.Progress})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// POST /api/points/quiz
// body: { "topic": "fractions", "correct": 4, "total": 5 }
func (ph *PointsHandler) RecordQuiz(c *gin.Context) {
	var req struct {
		Topic   string `json:"topic"`
		Correct int    `json:"correct"`
		Total   int    `json:"total"`
	}
	if !bindJSON(c, &req) {
		return
	}
	u, err := ph.points.RecordQuiz(c.Request.Context(), services.QuizInput{Topic: req.Topic, Correct: req.Correct, Total: req.Total})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// POST /api/points/battle
// body: { "won": true, "opponent": "..." }
func (ph *PointsHandler) RecordBattle(c *gin.Context) {
	var req struct {
		Won      bool   `json:"won"`
		Opponent string `json:"opponent"`
	}
	if !bindJSON(c, &req) {
		return
	}
	u, err := ph.points.RecordBattle(c.Request.Context(), services.BattleInput{Won: req.Won, Opponent: req.Opponent})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// POST /api/streak/checkin
func (ph *PointsHandler) CheckIn(c *gin.Context) {
	u, changed, err := ph.streak.CheckIn(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"user":        u,
		"changed":     changed,
		"loginStreak": u.LoginStreak,
	})
}
