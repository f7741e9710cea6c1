package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/levelup-backend/internal/data/aggregates"
	"github.com/yungbote/levelup-backend/internal/data/repos"
	"github.com/yungbote/levelup-backend/internal/data/repos/testutil"
	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/apierr"
	"github.com/yungbote/levelup-backend/internal/platform/ctxutil"
	"github.com/yungbote/levelup-backend/internal/platform/gcp"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
	"github.com/yungbote/levelup-backend/internal/realtime"
)

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (r *recordingEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingEmitter) byEvent(event realtime.SSEEvent) []realtime.SSEMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []realtime.SSEMessage
	for _, m := range r.msgs {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}

type fixture struct {
	db  *gorm.DB
	log *logger.Logger

	users       repos.UserRepo
	tokens      repos.UserTokenRepo
	progress    repos.TopicProgressRepo
	badges      repos.BadgeRepo
	store       repos.StoreRepo
	entries     repos.LedgerEntryRepo
	classes     repos.ClassRepo
	assignments repos.AssignmentRepo
	hackathons  repos.HackathonRepo
	teams       repos.TeamRepo

	emit        *recordingEmitter
	bucket      *gcp.MemoryBucketService
	rules       Rules
	ledger      LedgerService
	leaderboard LeaderboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	f := &fixture{
		db:          db,
		log:         log,
		users:       repos.NewUserRepo(db, log),
		tokens:      repos.NewUserTokenRepo(db, log),
		progress:    repos.NewTopicProgressRepo(db, log),
		badges:      repos.NewBadgeRepo(db, log),
		store:       repos.NewStoreRepo(db, log),
		entries:     repos.NewLedgerEntryRepo(db, log),
		classes:     repos.NewClassRepo(db, log),
		assignments: repos.NewAssignmentRepo(db, log),
		hackathons:  repos.NewHackathonRepo(db, log),
		teams:       repos.NewTeamRepo(db, log),
		emit:        &recordingEmitter{},
		bucket:      gcp.NewMemoryBucketService(""),
		rules:       DefaultRules(),
	}
	if err := SeedCatalog(context.Background(), log, f.badges, f.store, f.rules); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	notifier := NewLedgerNotifier(f.emit)
	f.leaderboard = NewLeaderboardService(log, f.users, f.badges, f.classes, NewMemoryLeaderboardCache(time.Minute), notifier, nil)
	f.ledger = NewLedgerService(log, LedgerServiceDeps{
		Ledger: aggregates.NewLedgerAggregate(aggregates.LedgerAggregateDeps{
			Base:    aggregates.BaseDeps{DB: db, Log: log},
			Users:   f.users,
			Badges:  f.badges,
			Store:   f.store,
			Entries: f.entries,
		}),
		Badges:      f.badges,
		Rules:       f.rules,
		Notifier:    notifier,
		Leaderboard: f.leaderboard,
	})
	return f
}

func (f *fixture) newHackathonService() *hackathonService {
	svc := NewHackathonService(f.log, HackathonServiceDeps{
		Users:      f.users,
		Classes:    f.classes,
		Hackathons: f.hackathons,
		TeamRepo:   f.teams,
		Teams: aggregates.NewTeamAggregate(aggregates.TeamAggregateDeps{
			Base:       aggregates.BaseDeps{DB: f.db, Log: f.log},
			Hackathons: f.hackathons,
			Teams:      f.teams,
		}),
		Ledger:   f.ledger,
		Bucket:   f.bucket,
		Notifier: NewClassroomNotifier(f.emit),
	})
	return svc.(*hackathonService)
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *types.User {
	t.Helper()
	u, err := f.users.GetByID(dbctx.Context{Ctx: context.Background()}, id)
	if err != nil || u == nil {
		t.Fatalf("reload user %s: %v", id, err)
	}
	return u
}

func as(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID:    u.ID,
		SessionID: uuid.New(),
		Role:      string(u.Role),
	})
}

func wantAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	ae, ok := apierr.As(err)
	if !ok {
		t.Fatalf("want api error %d/%s, got %v", status, code, err)
	}
	if ae.Status != status || (code != "" && ae.Code != code) {
		t.Fatalf("want %d/%s, got %d/%s (%v)", status, code, ae.Status, ae.Code, ae.Err)
	}
}
