package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/infrastructure/postgres/generated"
	"github.com/iho/exledger/internal/usecase"
)

// ServiceRepository implements usecase.ServiceRepository.
type ServiceRepository struct {
	queries *generated.Queries
}

// NewServiceRepository creates a new ServiceRepository.
func NewServiceRepository(db generated.DBTX) *ServiceRepository {
	return &ServiceRepository{queries: generated.New(db)}
}

// GetByID retrieves a service by ID.
func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	row, err := r.queries.GetServiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, err
	}
	return rowToService(row), nil
}

// GetByIDForUpdate locks the service row for the rest of the transaction.
func (r *ServiceRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Service, error) {
	row, err := queriesFor(tx).GetServiceByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, err
	}
	return rowToService(row), nil
}

// List returns all services ordered by name.
func (r *ServiceRepository) List(ctx context.Context) ([]*domain.Service, error) {
	rows, err := r.queries.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	services := make([]*domain.Service, 0, len(rows))
	for _, row := range rows {
		services = append(services, rowToService(row))
	}
	return services, nil
}

func rowToService(row generated.Service) *domain.Service {
	return &domain.Service{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt.Time,
	}
}

// AssetRepository implements usecase.AssetRepository.
type AssetRepository struct {
	queries *generated.Queries
}

// NewAssetRepository creates a new AssetRepository.
func NewAssetRepository(db generated.DBTX) *AssetRepository {
	return &AssetRepository{queries: generated.New(db)}
}

// GetByID retrieves an asset by ID.
func (r *AssetRepository) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	row, err := r.queries.GetAssetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, err
	}
	return rowToAsset(row), nil
}

// GetByIDs retrieves assets keyed by ID. Unknown IDs are absent from the map.
func (r *AssetRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Asset, error) {
	rows, err := r.queries.GetAssetsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	assets := make(map[string]*domain.Asset, len(rows))
	for _, row := range rows {
		assets[row.ID] = rowToAsset(row)
	}
	return assets, nil
}

// List returns all assets ordered by symbol.
func (r *AssetRepository) List(ctx context.Context) ([]*domain.Asset, error) {
	rows, err := r.queries.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	assets := make([]*domain.Asset, 0, len(rows))
	for _, row := range rows {
		assets = append(assets, rowToAsset(row))
	}
	return assets, nil
}

func rowToAsset(row generated.Asset) *domain.Asset {
	return &domain.Asset{
		ID:         row.ID,
		Symbol:     row.Symbol,
		Name:       row.Name,
		PairSymbol: textToPtr(row.PairSymbol),
		ManualRate: numericToNullDecimal(row.ManualRate),
		CreatedAt:  row.CreatedAt.Time,
	}
}

// UserRepository implements usecase.UserRepository.
type UserRepository struct {
	queries *generated.Queries
}

// NewUserRepository creates a new user repository
func NewUserRepository(db generated.DBTX) *UserRepository {
	return &UserRepository{queries: generated.New(db)}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row, err := r.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return rowToUser(row), nil
}

// GetByIDs retrieves users keyed by ID
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	rows, err := r.queries.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	users := make(map[string]*domain.User, len(rows))
	for _, row := range rows {
		users[row.ID] = rowToUser(row)
	}
	return users, nil
}

func rowToUser(row generated.User) *domain.User {
	return &domain.User{
		ID:        row.ID,
		Login:     row.Login,
		Name:      row.Name,
		Role:      domain.Role(row.Role),
		ServiceID: textToPtr(row.ServiceID),
		Active:    row.Active,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
