package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/http/response"
	"github.com/yungbote/levelup-backend/internal/platform/gcp"
	"github.com/yungbote/levelup-backend/internal/services"
)

// maxTeamUploadMemory is what ParseMultipartForm keeps in memory; larger
// parts spill to temp files.
const maxTeamUploadMemory = 32 << 20

type HackathonHandler struct {
	hackathons services.HackathonService
	bucket     gcp.BucketService
}

func NewHackathonHandler(hackathons services.HackathonService, bucket gcp.BucketService) *HackathonHandler {
	return &HackathonHandler{hackathons: hackathons, bucket: bucket}
}

// POST /api/hackathons
func (h *HackathonHandler) Create(c *gin.Context) {
	var req struct {
		ClassID     string     `json:"class_id"`
		Title       string     `json:"title"`
		Description string     `json:"description"`
		MinTeamSize int        `json:"min_team_size"`
		MaxTeamSize int        `json:"max_team_size"`
		StartsAt    *time.Time `json:"starts_at"`
		EndsAt      *time.Time `json:"ends_at"`
	}
	if !bindJSON(c, &req) {
		return
	}
	in := services.CreateHackathonInput{
		Title:       req.Title,
		Description: req.Description,
		MinTeamSize: req.MinTeamSize,
		MaxTeamSize: req.MaxTeamSize,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}
	if req.ClassID != "" {
		classID, err := uuid.Parse(req.ClassID)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_class_id", fmt.Errorf("invalid class_id"))
			return
		}
		in.ClassID = &classID
	}
	hk, err := h.hackathons.CreateHackathon(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"hackathon": hk})
}

func (h *HackathonHandler) List(c *gin.Context) {
	list, err := h.hackathons.ListHackathons(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"hackathons": list})
}

func (h *HackathonHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	hk, err := h.hackathons.GetHackathon(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"hackathon": hk})
}

// POST /api/hackathons/:id/teams
// body: { "name": "...", "problem_statement": "...", "members": [{"id": "..."}, {"email": "..."}] }
func (h *HackathonHandler) CreateTeam(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name             string `json:"name"`
		ProblemStatement string `json:"problem_statement"`
		Members          []struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"members"`
	}
	if !bindJSON(c, &req) {
		return
	}
	in := services.CreateTeamInput{Name: req.Name, ProblemStatement: req.ProblemStatement}
	for _, m := range req.Members {
		ref, err := userRef(m.ID, m.Email)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_member", err)
			return
		}
		in.Members = append(in.Members, ref)
	}
	team, err := h.hackathons.CreateTeam(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	normalizeTeamFileURLs(h.bucket, team)
	response.RespondCreated(c, gin.H{"team": team})
}

func (h *HackathonHandler) ListTeams(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	teams, err := h.hackathons.ListTeams(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	normalizeTeamsFileURLs(h.bucket, teams)
	response.RespondOK(c, gin.H{"teams": teams})
}

// GET /api/hackathons/:id/team/me
func (h *HackathonHandler) MyTeam(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	team, err := h.hackathons.MyTeam(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	normalizeTeamFileURLs(h.bucket, team)
	response.RespondOK(c, gin.H{"team": team})
}

// PATCH /api/hackathons/:id/teams/:teamId
func (h *HackathonHandler) UpdateTeam(c *gin.Context) {
	hid, tid, ok := teamParams(c)
	if !ok {
		return
	}
	var req struct {
		Name             *string `json:"name"`
		ProblemStatement *string `json:"problem_statement"`
	}
	if !bindJSON(c, &req) {
		return
	}
	team, err := h.hackathons.UpdateTeam(c.Request.Context(), hid, tid, services.UpdateTeamInput{
		Name:             req.Name,
		ProblemStatement: req.ProblemStatement,
	})
	h.respondTeam(c, team, err)
}

func (h *HackathonHandler) DeleteTeam(c *gin.Context) {
	hid, tid, ok := teamParams(c)
	if !ok {
		return
	}
	if err := h.hackathons.DeleteTeam(c.Request.Context(), hid, tid); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/hackathons/:id/teams/:teamId/submission
// body: { "text": "...", "link": "https://..." }
func (h *HackathonHandler) Submit(c *gin.Context) {
	hid, tid, ok := teamParams(c)
	if !ok {
		return
	}
	var req struct {
		Text *string `json:"text"`
		Link *string `json:"link"`
	}
	if !bindJSON(c, &req) {
		return
	}
	team, err := h.hackathons.SubmitTeam(c.Request.Context(), hid, tid, services.TeamSubmissionInput{Text: req.Text, Link: req.Link})
	h.respondTeam(c, team, err)
}

// POST /api/hackathons/:id/teams/:teamId/files (multipart field "files")
func (h *HackathonHandler) UploadFiles(c *gin.Context) {
	hid, tid, ok := teamParams(c)
	if !ok {
		return
	}
	if err := c.Request.ParseMultipartForm(maxTeamUploadMemory); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart", err)
		return
	}
	var headers []*multipart.FileHeader
	if c.Request.MultipartForm != nil {
		headers = c.Request.MultipartForm.File["files"]
	}
	files := make([]services.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_multipart", err)
			return
		}
		defer f.Close()
		files = append(files, services.UploadedFile{Name: fh.Filename, Size: fh.Size, Body: f})
	}
	team, err := h.hackathons.UploadFiles(c.Request.Context(), hid, tid, files)
	h.respondTeam(c, team, err)
}

// POST /api/hackathons/:id/teams/:teamId/grade
// body: { "score": 90, "xpAward": 50 }
func (h *HackathonHandler) Grade(c *gin.Context) {
	hid, tid, ok := teamParams(c)
	if !ok {
		return
	}
	var req struct {
		Score   int `json:"score"`
		XPAward int `json:"xpAward"`
	}
	if !bindJSON(c, &req) {
		return
	}
	team, err := h.hackathons.GradeTeam(c.Request.Context(), hid, tid, services.GradeTeamInput{Score: req.Score, XPAward: req.XPAward})
	h.respondTeam(c, team, err)
}

func (h *HackathonHandler) respondTeam(c *gin.Context, team *types.Team, err error) {
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	normalizeTeamFileURLs(h.bucket, team)
	response.RespondOK(c, gin.H{"team": team})
}

func teamParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	hid, ok := uuidParam(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	tid, ok := uuidParam(c, "teamId")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return hid, tid, true
}
