package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/http/response"
	"github.com/yungbote/levelup-backend/internal/platform/gcp"
	"github.com/yungbote/levelup-backend/internal/services"
)

// maxAvatarUpload bounds the multipart body read for an avatar.
const maxAvatarUpload = 5 << 20

type UserHandler struct {
	userService   services.UserService
	avatarService services.AvatarService
	points        services.PointsService
	bucket        gcp.BucketService
}

func NewUserHandler(userService services.UserService, avatarService services.AvatarService, points services.PointsService, bucket gcp.BucketService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		avatarService: avatarService,
		points:        points,
		bucket:        bucket,
	}
}

// GET /api/users/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.Me(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	normalizeUserAvatarURL(uh.bucket, me.User)
	response.RespondOK(c, me)
}

// PATCH /api/users/me/name
// body: { "first_name": "...", "last_name": "..." }
func (uh *UserHandler) ChangeName(c *gin.Context) {
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if !bindJSON(c, &req) {
		return
	}
	u, err := uh.userService.UpdateName(c.Request.Context(), req.FirstName, req.LastName)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	normalizeUserAvatarURL(uh.bucket, u)
	response.RespondOK(c, gin.H{"user": u})
}

// PUT /api/users/me/avatar (multipart field "file")
func (uh *UserHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_avatar", fmt.Errorf("missing file"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_avatar", err)
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxAvatarUpload+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_avatar", err)
		return
	}
	u, err := uh.avatarService.UploadAvatarImage(c.Request.Context(), raw)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	normalizeUserAvatarURL(uh.bucket, u)
	response.RespondOK(c, gin.H{"user": u})
}

// PUT /api/users/me/progress
// body: { "topic": "fractions", "percent": 40 }
func (uh *UserHandler) UpdateProgress(c *gin.Context) {
	var req struct {
		Topic   string `json:"topic"`
		Percent int    `json:"percent"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := uh.userService.UpdateProgress(c.Request.Context(), req.Topic, req.Percent)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": p})
}

// GET /api/users/me/ledger?limit=
func (uh *UserHandler) Ledger(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	entries, err := uh.userService.LedgerHistory(c.Request.Context(), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entries": entries})
}

// PATCH /api/users/:id/xp
// body: { "xpToAdd": 15, "reason": "..." }
func (uh *UserHandler) AddXP(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		XPToAdd int    `json:"xpToAdd"`
		Reason  string `json:"reason"`
	}
	if !bindJSON(c, &req) {
		return
	}
	uh.awardXP(c, services.UserRef{ID: &id}, req.XPToAdd, req.Reason)
}

// POST /api/users/award-xp
// body: { "email": "...", "xpToAdd": 15, "reason": "..." }
func (uh *UserHandler) AwardXPByEmail(c *gin.Context) {
	var req struct {
		UserID  string `json:"userId"`
		Email   string `json:"email"`
		XPToAdd int    `json:"xpToAdd"`
		Reason  string `json:"reason"`
	}
	if !bindJSON(c, &req) {
		return
	}
	ref, err := userRef(req.UserID, req.Email)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user", err)
		return
	}
	uh.awardXP(c, ref, req.XPToAdd, req.Reason)
}

func (uh *UserHandler) awardXP(c *gin.Context, target services.UserRef, xp int, reason string) {
	u, err := uh.points.AwardXP(c.Request.Context(), services.AwardXPInput{
		Target: target,
		XP:     xp,
		Reason: strings.TrimSpace(reason),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	normalizeUserAvatarURL(uh.bucket, u)
	response.RespondOK(c, gin.H{"user": u})
}

type LeaderboardHandler struct {
	leaderboard services.LeaderboardService
}

func NewLeaderboardHandler(leaderboard services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// GET /api/users/leaderboard?classId=&limit=
func (lh *LeaderboardHandler) Get(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	var classID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("classId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_classId", fmt.Errorf("invalid classId"))
			return
		}
		classID = &id
	}
	lb, err := lh.leaderboard.Get(c.Request.Context(), classID, limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, lb)
}
