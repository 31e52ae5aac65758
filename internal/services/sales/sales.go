// Package services содержит бизнес-логику продаж и их позиций.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-store/internal/authz"
	"github.com/magabrotheeeer/pos-store/internal/lib/metrics"
	"github.com/magabrotheeeer/pos-store/internal/models"
)

// Границы пагинации списка продаж.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// SalesRepository операции хранилища над продажами и позициями.
type SalesRepository interface {
	CreateSale(ctx context.Context, sale *models.Sale) error
	GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	ListSales(ctx context.Context, owner uuid.UUID, limit, offset int) ([]*models.Sale, error)

	CreateSaleItem(ctx context.Context, it *models.SaleItem) error
	GetSaleItem(ctx context.Context, id uuid.UUID) (*models.SaleItem, error)
	ListSaleItems(ctx context.Context, saleID uuid.UUID) ([]*models.SaleItem, error)
	UpdateSaleItem(ctx context.Context, it *models.SaleItem) error
	DeleteSaleItem(ctx context.Context, id uuid.UUID) error
}

// SalesService регистрирует продажи и управляет их позициями.
type SalesService struct {
	repo   SalesRepository
	policy authz.Authorizer
	log    *slog.Logger
}

// NewSalesService создает новый экземпляр SalesService.
func NewSalesService(repo SalesRepository, policy authz.Authorizer, log *slog.Logger) *SalesService {
	return &SalesService{
		repo:   repo,
		policy: policy,
		log:    log,
	}
}

// CreateSale регистрирует продажу вместе с позициями одной транзакцией.
// Продажа проходит шлюз подписки; при отказе ничего не сохраняется.
func (s *SalesService) CreateSale(ctx context.Context, actor authz.Actor, req models.DummySale) (*models.Sale, error) {
	const op = "services.CreateSale"

	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%s: %w: %q", op, models.ErrInvalidPaymentMethod, req.PaymentMethod)
	}
	if err := models.ValidateAmount(req.TotalUSD); err != nil {
		return nil, fmt.Errorf("%s: total_usd: %w", op, err)
	}
	if err := models.ValidateAmount(req.ExchangeRate); err != nil {
		return nil, fmt.Errorf("%s: exchange_rate: %w", op, err)
	}

	sale := &models.Sale{
		UserID:        actor.UserUID,
		TotalUSD:      req.TotalUSD,
		ExchangeRate:  req.ExchangeRate,
		PaymentMethod: req.PaymentMethod,
		IsCredit:      req.IsCredit,
		ClientName:    req.ClientName,
	}
	for _, it := range req.Items {
		if err := models.ValidateAmount(it.PriceAtSaleUSD); err != nil {
			return nil, fmt.Errorf("%s: price_at_sale_usd: %w", op, err)
		}
		sale.Items = append(sale.Items, models.SaleItem{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			PriceAtSaleUSD: it.PriceAtSaleUSD,
		})
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpInsert, authz.EntitySale, sale); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.CreateSale(ctx, sale); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.SalesCreated.WithLabelValues(sale.PaymentMethod).Inc()
	s.log.Info("sale created",
		slog.String("id", sale.ID.String()),
		slog.Int("items", len(sale.Items)),
	)
	return sale, nil
}

// GetSale возвращает продажу с позициями.
func (s *SalesService) GetSale(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Sale, error) {
	const op = "services.GetSale"

	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpRead, authz.EntitySale, sale); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := s.ListItems(ctx, actor, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sale.Items = make([]models.SaleItem, 0, len(items))
	for _, it := range items {
		sale.Items = append(sale.Items, *it)
	}
	return sale, nil
}

// ListSales возвращает продажи субъекта, новые первыми.
func (s *SalesService) ListSales(ctx context.Context, actor authz.Actor, limit, offset int) ([]*models.Sale, error) {
	const op = "services.ListSales"

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.repo.ListSales(ctx, actor.UserUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list, err = authz.FilterReadable(ctx, s.policy, actor, authz.EntitySale, list)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// AddItem добавляет позицию к продаже субъекта.
func (s *SalesService) AddItem(ctx context.Context, actor authz.Actor, saleID uuid.UUID, req models.DummySaleItem) (*models.SaleItem, error) {
	const op = "services.AddItem"

	if err := models.ValidateAmount(req.PriceAtSaleUSD); err != nil {
		return nil, fmt.Errorf("%s: price_at_sale_usd: %w", op, err)
	}
	it := &models.SaleItem{
		SaleID:         saleID,
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		PriceAtSaleUSD: req.PriceAtSaleUSD,
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpInsert, authz.EntitySaleItem, it); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.CreateSaleItem(ctx, it); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return it, nil
}

// ListItems возвращает позиции продажи. Для чужой или несуществующей продажи
// возвращается пустой список.
func (s *SalesService) ListItems(ctx context.Context, actor authz.Actor, saleID uuid.UUID) ([]*models.SaleItem, error) {
	const op = "services.ListItems"

	items, err := s.repo.ListSaleItems(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	items, err = authz.FilterReadable(ctx, s.policy, actor, authz.EntitySaleItem, items)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// GetItem возвращает позицию, если субъект владеет её продажей.
func (s *SalesService) GetItem(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.SaleItem, error) {
	const op = "services.GetItem"

	it, err := s.repo.GetSaleItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpRead, authz.EntitySaleItem, it); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return it, nil
}

// UpdateItem меняет товар, количество и цену позиции. Перенос позиции
// в другую продажу не поддерживается.
func (s *SalesService) UpdateItem(ctx context.Context, actor authz.Actor, id uuid.UUID, req models.DummySaleItem) (*models.SaleItem, error) {
	const op = "services.UpdateItem"

	if err := models.ValidateAmount(req.PriceAtSaleUSD); err != nil {
		return nil, fmt.Errorf("%s: price_at_sale_usd: %w", op, err)
	}
	current, err := s.repo.GetSaleItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpUpdate, authz.EntitySaleItem, current); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	it := &models.SaleItem{
		ID:             current.ID,
		SaleID:         current.SaleID,
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		PriceAtSaleUSD: req.PriceAtSaleUSD,
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpUpdate, authz.EntitySaleItem, it); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateSaleItem(ctx, it); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return it, nil
}

// DeleteItem удаляет позицию.
func (s *SalesService) DeleteItem(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	const op = "services.DeleteItem"

	it, err := s.repo.GetSaleItem(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpDelete, authz.EntitySaleItem, it); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteSaleItem(ctx, it.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
