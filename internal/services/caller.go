package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/data/repos"
	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/domain/user"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/apierr"
	"github.com/yungbote/levelup-backend/internal/platform/ctxutil"
)

func requireCaller(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	return rd, nil
}

func requireTeacher(ctx context.Context) (*ctxutil.RequestData, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if rd.Role != string(types.RoleTeacher) {
		return nil, apierr.Forbidden("teacher role required")
	}
	return rd, nil
}

// UserRef names an account by id or by email. The id wins when both are set.
type UserRef struct {
	ID    *uuid.UUID
	Email string
}

func (r UserRef) empty() bool {
	return (r.ID == nil || *r.ID == uuid.Nil) && user.NormalizeEmail(r.Email) == ""
}

func resolveUser(dbc dbctx.Context, users repos.UserRepo, ref UserRef) (*types.User, error) {
	if ref.empty() {
		return nil, apierr.BadRequest("missing_user", "user id or email is required")
	}
	var (
		u   *types.User
		err error
	)
	if ref.ID != nil && *ref.ID != uuid.Nil {
		u, err = users.GetByID(dbc, *ref.ID)
	} else {
		u, err = users.GetByEmail(dbc, user.NormalizeEmail(ref.Email))
	}
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found", "user not found")
	}
	return u, nil
}

// requireRosterAccess admits a teacher acting on a student enrolled in one
// of the teacher's classes.
func requireRosterAccess(dbc dbctx.Context, classes repos.ClassRepo, rd *ctxutil.RequestData, studentID uuid.UUID) error {
	if rd.Role != string(types.RoleTeacher) {
		return apierr.Forbidden("teacher role required")
	}
	ok, err := classes.TeacherHasStudent(dbc, rd.UserID, studentID)
	if err != nil {
		return fmt.Errorf("check roster: %w", err)
	}
	if !ok {
		return apierr.Forbidden("student is not in any of your classes")
	}
	return nil
}
