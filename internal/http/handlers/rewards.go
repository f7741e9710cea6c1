package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/levelup-backend/internal/http/response"
	"github.com/yungbote/levelup-backend/internal/services"
)

type RewardsHandler struct {
	rewards services.RewardsService
	store   services.StoreService
}

func NewRewardsHandler(rewards services.RewardsService, store services.StoreService) *RewardsHandler {
	return &RewardsHandler{rewards: rewards, store: store}
}

// POST /api/rewards/award
// body: { "studentId": "...", "studentEmail": "...", "points": 20, "reason": "..." }
func (rh *RewardsHandler) Award(c *gin.Context) {
	var req struct {
		StudentID    string `json:"studentId"`
		StudentEmail string `json:"studentEmail"`
		Points       int    `json:"points"`
		Reason       string `json:"reason"`
	}
	if !bindJSON(c, &req) {
		return
	}
	ref, err := userRef(req.StudentID, req.StudentEmail)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_student", err)
		return
	}
	u, err := rh.rewards.TeacherAward(c.Request.Context(), services.TeacherAwardInput{
		Student: ref,
		Points:  req.Points,
		Reason:  req.Reason,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// GET /api/rewards/badges
func (rh *RewardsHandler) Catalog(c *gin.Context) {
	defs, err := rh.rewards.Catalog(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"badges": defs})
}

// GET /api/rewards/badges/:userId
func (rh *RewardsHandler) UserBadges(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	badges, err := rh.rewards.ListUserBadges(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"badges": badges})
}

// POST /api/rewards/badges/:userId
// body: { "badgeId": "first-steps" }
func (rh *RewardsHandler) AwardBadge(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	var req struct {
		BadgeID string `json:"badgeId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	ub, awarded, err := rh.rewards.AwardBadge(c.Request.Context(), userID, req.BadgeID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"badge": ub, "awarded": awarded})
}

// GET /api/rewards/unlocked
func (rh *RewardsHandler) Unlocked(c *gin.Context) {
	rewards, err := rh.rewards.Unlocked(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"unlocked": rewards})
}

// GET /api/store/items
func (rh *RewardsHandler) StoreItems(c *gin.Context) {
	items, err := rh.store.Items(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

// POST /api/store/purchase
// body: { "itemId": "theme-neon" }
func (rh *RewardsHandler) Purchase(c *gin.Context) {
	var req struct {
		ItemID string `json:"itemId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := rh.store.Purchase(c.Request.Context(), req.ItemID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}
