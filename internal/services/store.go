package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yungbote/levelup-backend/internal/data/repos"
	types "github.com/yungbote/levelup-backend/internal/domain"
	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/apierr"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

type PurchaseResult struct {
	Item     *types.StoreItem      `json:"item"`
	Unlocked *types.UnlockedReward `json:"unlocked"`
	User     *types.User           `json:"user"`
}

type StoreService interface {
	Items(ctx context.Context) ([]*types.StoreItem, error)
	Purchase(ctx context.Context, itemID string) (*PurchaseResult, error)
}

type storeService struct {
	log    *logger.Logger
	store  repos.StoreRepo
	ledger LedgerService
}

func NewStoreService(log *logger.Logger, store repos.StoreRepo, ledger LedgerService) StoreService {
	return &storeService{log: log.With("service", "StoreService"), store: store, ledger: ledger}
}

func (s *storeService) Items(ctx context.Context) ([]*types.StoreItem, error) {
	items, err := s.store.ListItems(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("list store items: %w", err)
	}
	return items, nil
}

func (s *storeService) Purchase(ctx context.Context, itemID string) (*PurchaseResult, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, apierr.BadRequest("missing_item", "itemId is required")
	}
	res, err := s.ledger.Purchase(ctx, domainagg.PurchaseInput{UserID: rd.UserID, ItemID: itemID})
	if err != nil {
		return nil, purchaseError(err)
	}
	s.log.Info("store purchase", "user_id", rd.UserID, "item_id", itemID, "cost", res.Item.Cost)
	return &PurchaseResult{Item: &res.Item, Unlocked: &res.Unlocked, User: &res.After}, nil
}

func purchaseError(err error) error {
	switch {
	case domainagg.IsCode(err, domainagg.CodePreconditionFailed):
		return apierr.New(http.StatusBadRequest, "insufficient_coins", errors.New(domainagg.MessageOf(err)))
	case domainagg.IsCode(err, domainagg.CodeConflict):
		return apierr.New(http.StatusConflict, "already_unlocked", errors.New(domainagg.MessageOf(err)))
	case domainagg.IsCode(err, domainagg.CodeNotFound):
		return apierr.NotFound("item_not_found", domainagg.MessageOf(err))
	}
	return apierr.FromAggregate(err)
}
