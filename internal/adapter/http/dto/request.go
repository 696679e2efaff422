package dto

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iho/exledger/internal/domain"
	"github.com/iho/exledger/internal/usecase"
)

// ErrMissingField is returned by request validation.
var ErrMissingField = errors.New("missing required field")

// CreateOrderRequest represents a request to record an exchange.
type CreateOrderRequest struct {
	ReceivedAssetID string          `json:"received_asset_id"`
	ReceivedAmount  decimal.Decimal `json:"received_amount"`
	GivenAssetID    string          `json:"given_asset_id"`
	GivenAmount     decimal.Decimal `json:"given_amount"`
	Comment         string          `json:"comment,omitempty"`
	CategoryID      *string         `json:"category_id,omitempty"`
}

// ToUseCaseInput converts to use case input. The acting user is the
// operator of the order.
func (r *CreateOrderRequest) ToUseCaseInput(serviceID string, actor *domain.User) usecase.CreateOrderInput {
	input := usecase.CreateOrderInput{
		ServiceID:       serviceID,
		ReceivedAssetID: r.ReceivedAssetID,
		ReceivedAmount:  r.ReceivedAmount,
		GivenAssetID:    r.GivenAssetID,
		GivenAmount:     r.GivenAmount,
		Comment:         r.Comment,
		CategoryID:      r.CategoryID,
	}
	if actor != nil {
		id := actor.ID
		input.UserID = &id
	}
	return input
}

// EditOrderRequest carries the replacement legs of an exchange order.
type EditOrderRequest CreateOrderRequest

// ToUseCaseInput converts to use case input.
func (r *EditOrderRequest) ToUseCaseInput(orderID string, actor *domain.User) usecase.EditOrderInput {
	return usecase.EditOrderInput{
		OrderID:         orderID,
		Actor:           actor,
		ReceivedAssetID: r.ReceivedAssetID,
		ReceivedAmount:  r.ReceivedAmount,
		GivenAssetID:    r.GivenAssetID,
		GivenAmount:     r.GivenAmount,
		Comment:         r.Comment,
		CategoryID:      r.CategoryID,
	}
}

// AdminActionRequest represents a deposit, withdrawal or manual in/out.
type AdminActionRequest struct {
	AssetID   string           `json:"asset_id"`
	Amount    decimal.Decimal  `json:"amount"`
	Direction domain.Direction `json:"direction"`
	Comment   string           `json:"comment,omitempty"`
}

// Validate checks the fields the use case cannot default.
func (r *AdminActionRequest) Validate() error {
	if r.AssetID == "" {
		return errors.Join(ErrMissingField, errors.New("asset_id"))
	}
	if r.Direction == "" {
		return errors.Join(ErrMissingField, errors.New("direction"))
	}
	return nil
}

// ToUseCaseInput converts to use case input.
func (r *AdminActionRequest) ToUseCaseInput(serviceID string, actor *domain.User) usecase.AdminActionInput {
	return usecase.AdminActionInput{
		ServiceID: serviceID,
		Actor:     actor,
		AssetID:   r.AssetID,
		Amount:    r.Amount,
		Direction: r.Direction,
		Comment:   r.Comment,
	}
}

// SetBalanceRequest overwrites a balance with an absolute amount.
type SetBalanceRequest struct {
	Amount  *decimal.Decimal `json:"amount"`
	Comment string           `json:"comment,omitempty"`
}

// Validate requires the amount; zero is a legitimate target.
func (r *SetBalanceRequest) Validate() error {
	if r.Amount == nil {
		return errors.Join(ErrMissingField, errors.New("amount"))
	}
	return nil
}

// ToUseCaseInput converts to use case input.
func (r *SetBalanceRequest) ToUseCaseInput(serviceID, assetID string, actor *domain.User) usecase.SetBalanceInput {
	input := usecase.SetBalanceInput{
		ServiceID: serviceID,
		Actor:     actor,
		AssetID:   assetID,
		Comment:   r.Comment,
	}
	if r.Amount != nil {
		input.NewAmount = *r.Amount
	}
	return input
}

// CreateTransferRequest represents a request to move an asset between services.
type CreateTransferRequest struct {
	FromServiceID string          `json:"from_service_id"`
	ToServiceID   string          `json:"to_service_id"`
	AssetID       string          `json:"asset_id"`
	Amount        decimal.Decimal `json:"amount"`
	Comment       string          `json:"comment,omitempty"`
}

// Validate checks that both ends and the asset are named.
func (r *CreateTransferRequest) Validate() error {
	switch {
	case r.FromServiceID == "":
		return errors.Join(ErrMissingField, errors.New("from_service_id"))
	case r.ToServiceID == "":
		return errors.Join(ErrMissingField, errors.New("to_service_id"))
	case r.AssetID == "":
		return errors.Join(ErrMissingField, errors.New("asset_id"))
	}
	return nil
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput(actor *domain.User) usecase.CreateTransferInput {
	return usecase.CreateTransferInput{
		FromServiceID: r.FromServiceID,
		ToServiceID:   r.ToServiceID,
		AssetID:       r.AssetID,
		Amount:        r.Amount,
		Actor:         actor,
		Comment:       r.Comment,
	}
}
