// Package usecase implements the catalog pull: a watermark-based snapshot
// sync that mirrors the server's product list into the local store.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/possync/internal/catalog/domain"
	"github.com/allisson/possync/internal/database"
	apperrors "github.com/allisson/possync/internal/errors"
)

// ProductRepository defines catalog persistence operations.
type ProductRepository interface {
	Upsert(ctx context.Context, workspaceID string, products []*domain.Product) error
	DeleteAll(ctx context.Context, workspaceID string) error
	List(ctx context.Context, workspaceID string, activeOnly bool) ([]*domain.Product, error)
	Watermark(ctx context.Context) (*time.Time, error)
	SetWatermark(ctx context.Context, watermark time.Time) error
	ClearWatermark(ctx context.Context) error
}

// Fetcher retrieves catalog pages from the central server.
type Fetcher interface {
	FetchProducts(ctx context.Context, since *time.Time, page, pageSize int) (*domain.ProductPage, error)
}

// CatalogUseCase defines the interface for catalog operations.
type CatalogUseCase interface {
	Pull(ctx context.Context, reset bool) (*domain.PullResult, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]*domain.Product, error)
}

// CatalogService implements the catalog pull and reads.
type CatalogService struct {
	workspaceID string
	pageSize    int
	txManager   database.TxManager
	repo        ProductRepository
	fetcher     Fetcher
	logger      *slog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	workspaceID string,
	pageSize int,
	txManager database.TxManager,
	repo ProductRepository,
	fetcher Fetcher,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		workspaceID: workspaceID,
		pageSize:    pageSize,
		txManager:   txManager,
		repo:        repo,
		fetcher:     fetcher,
		logger:      logger,
	}
}

// Pull fetches every catalog change since the watermark and applies it
// locally. With reset set, the local mirror and the watermark are wiped in one
// transaction before the whole catalog is refetched, so products the server no
// longer returns disappear and an interrupted reset resumes as a full pull.
// The watermark advances only after the last page has been applied; an
// interrupted pull re-fetches from the old watermark, and upserts make that
// repetition harmless.
func (s *CatalogService) Pull(ctx context.Context, reset bool) (*domain.PullResult, error) {
	var since *time.Time
	if reset {
		err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
			if err := s.repo.DeleteAll(ctx, s.workspaceID); err != nil {
				return err
			}
			return s.repo.ClearWatermark(ctx)
		})
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to reset catalog mirror")
		}
	} else {
		watermark, err := s.repo.Watermark(ctx)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to read catalog watermark")
		}
		since = watermark
	}

	// A product updated while later pages stream in must land inside the next
	// pull's since window, so the watermark comes from the first page's server
	// clock. The local clock, taken before the first fetch, covers servers
	// that omit theirs.
	serverTime := time.Now().UTC()
	upserted := 0

	for page := 1; ; page++ {
		productPage, err := s.fetcher.FetchProducts(ctx, since, page, s.pageSize)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to fetch catalog page")
		}

		if page == 1 && !productPage.ServerTime.IsZero() {
			serverTime = productPage.ServerTime
		}

		if len(productPage.Products) > 0 {
			err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
				return s.repo.Upsert(ctx, s.workspaceID, productPage.Products)
			})
			if err != nil {
				return nil, apperrors.Wrap(err, "failed to apply catalog page")
			}
			upserted += len(productPage.Products)
		}

		if !productPage.HasMore {
			break
		}
	}

	if err := s.repo.SetWatermark(ctx, serverTime); err != nil {
		return nil, apperrors.Wrap(err, "failed to advance catalog watermark")
	}

	if s.logger != nil {
		s.logger.Info("catalog pull completed",
			slog.String("workspace_id", s.workspaceID),
			slog.Int("upserted", upserted),
			slog.Bool("full", since == nil),
			slog.Time("watermark", serverTime),
		)
	}

	return &domain.PullResult{
		Upserted:  upserted,
		Watermark: serverTime,
		Full:      since == nil,
	}, nil
}

// ListProducts returns the mirrored catalog.
func (s *CatalogService) ListProducts(ctx context.Context, activeOnly bool) ([]*domain.Product, error) {
	return s.repo.List(ctx, s.workspaceID, activeOnly)
}
