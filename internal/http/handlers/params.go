package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/http/response"
	"github.com/yungbote/levelup-backend/internal/services"
)

// uuidParam parses a path parameter and writes a 400 when it is malformed.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, fmt.Errorf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, fmt.Errorf("%s must be an integer", name))
		return 0, false
	}
	return n, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

// userRef builds a reference from optional id and email fields of a body.
func userRef(rawID, email string) (services.UserRef, error) {
	ref := services.UserRef{Email: strings.TrimSpace(email)}
	if rawID = strings.TrimSpace(rawID); rawID != "" {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return ref, fmt.Errorf("invalid user id %q", rawID)
		}
		ref.ID = &id
	}
	return ref, nil
}
