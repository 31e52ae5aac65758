// Package services содержит бизнес-логику каталога: категории и товары.
// Перед каждым обращением к хранилищу операция проверяется политикой доступа.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/pos-store/internal/authz"
	"github.com/magabrotheeeer/pos-store/internal/cache"
	"github.com/magabrotheeeer/pos-store/internal/lib/sl"
	"github.com/magabrotheeeer/pos-store/internal/models"
)

// CatalogRepository операции хранилища над категориями и товарами.
type CatalogRepository interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context, owner uuid.UUID) ([]*models.Category, error)
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id, owner uuid.UUID) error

	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, owner uuid.UUID, f models.ProductFilter) ([]*models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id, owner uuid.UUID) error
}

// Cache кэш чтения товаров.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш; нулевой expiration означает TTL по умолчанию.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значения из кеша.
	Invalidate(ctx context.Context, keys ...string) error
}

// CatalogService управляет категориями и товарами пользователя.
type CatalogService struct {
	repo   CatalogRepository
	cache  Cache
	policy authz.Authorizer
	log    *slog.Logger
}

// NewCatalogService создает новый экземпляр CatalogService.
func NewCatalogService(repo CatalogRepository, cache Cache, policy authz.Authorizer, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		cache:  cache,
		policy: policy,
		log:    log,
	}
}

// CreateCategory создаёт категорию субъекта.
func (s *CatalogService) CreateCategory(ctx context.Context, actor authz.Actor, req models.DummyCategory) (*models.Category, error) {
	const op = "services.CreateCategory"

	c := &models.Category{
		UserID: actor.UserUID,
		Name:   req.Name,
		Color:  req.Color,
	}
	if c.Color == "" {
		c.Color = models.DefaultCategoryColor
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpInsert, authz.EntityCategory, c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("category created", slog.String("id", c.ID.String()))
	return c, nil
}

// GetCategory возвращает категорию, если субъект может её читать.
func (s *CatalogService) GetCategory(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Category, error) {
	const op = "services.GetCategory"

	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpRead, authz.EntityCategory, c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// ListCategories возвращает категории субъекта.
func (s *CatalogService) ListCategories(ctx context.Context, actor authz.Actor) ([]*models.Category, error) {
	const op = "services.ListCategories"

	list, err := s.repo.ListCategories(ctx, actor.UserUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list, err = authz.FilterReadable(ctx, s.policy, actor, authz.EntityCategory, list)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// UpdateCategory меняет имя и цвет категории.
func (s *CatalogService) UpdateCategory(ctx context.Context, actor authz.Actor, id uuid.UUID, req models.DummyCategory) (*models.Category, error) {
	const op = "services.UpdateCategory"

	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpUpdate, authz.EntityCategory, c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.Name = req.Name
	if req.Color != "" {
		c.Color = req.Color
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// DeleteCategory удаляет категорию. Товары категории остаются без категории.
func (s *CatalogService) DeleteCategory(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	const op = "services.DeleteCategory"

	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpDelete, authz.EntityCategory, c); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteCategory(ctx, c.ID, c.UserID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateUncategorized(ctx, c.UserID)
	return nil
}

// CreateProduct создаёт товар субъекта. Незаданные поля получают значения по умолчанию.
func (s *CatalogService) CreateProduct(ctx context.Context, actor authz.Actor, req models.DummyProduct) (*models.Product, error) {
	const op = "services.CreateProduct"

	p := &models.Product{UserID: actor.UserUID}
	if err := applyProduct(p, req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpInsert, authz.EntityProduct, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("product created", slog.String("id", p.ID.String()))
	return p, nil
}

// GetProduct возвращает товар через кэш чтения. Политика проверяется
// и для строки из кэша.
func (s *CatalogService) GetProduct(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Product, error) {
	const op = "services.GetProduct"

	key := cache.ProductKey(actor.UserUID, id)
	var cached models.Product
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		if err := s.policy.Authorize(ctx, actor, authz.OpRead, authz.EntityProduct, &cached); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &cached, nil
	}

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpRead, authz.EntityProduct, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, p, 0); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), sl.Err(err))
	}
	return p, nil
}

// ListProducts возвращает товары субъекта с фильтром по категории и штрихкоду.
func (s *CatalogService) ListProducts(ctx context.Context, actor authz.Actor, f models.ProductFilter) ([]*models.Product, error) {
	const op = "services.ListProducts"

	list, err := s.repo.ListProducts(ctx, actor.UserUID, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list, err = authz.FilterReadable(ctx, s.policy, actor, authz.EntityProduct, list)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// UpdateProduct заменяет поля товара. Незаданные поля получают значения по умолчанию,
// как при создании.
func (s *CatalogService) UpdateProduct(ctx context.Context, actor authz.Actor, id uuid.UUID, req models.DummyProduct) (*models.Product, error) {
	const op = "services.UpdateProduct"

	current, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpUpdate, authz.EntityProduct, current); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := &models.Product{ID: current.ID, UserID: current.UserID, CreatedAt: current.CreatedAt}
	if err := applyProduct(p, req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpUpdate, authz.EntityProduct, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, cache.ProductKey(p.UserID, p.ID))
	return p, nil
}

// DeleteProduct удаляет товар. Позиции продаж сохраняют цену, ссылка на товар обнуляется.
func (s *CatalogService) DeleteProduct(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	const op = "services.DeleteProduct"

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.policy.Authorize(ctx, actor, authz.OpDelete, authz.EntityProduct, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, cache.ProductKey(p.UserID, p.ID))
	if err := s.repo.DeleteProduct(ctx, p.ID, p.UserID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to remove from cache", slog.Any("keys", keys), sl.Err(err))
	}
}

// invalidateUncategorized сбрасывает кэш товаров владельца без категории:
// среди них те, чья ссылка только что обнулена удалением категории.
func (s *CatalogService) invalidateUncategorized(ctx context.Context, owner uuid.UUID) {
	list, err := s.repo.ListProducts(ctx, owner, models.ProductFilter{})
	if err != nil {
		s.log.Warn("failed to list products for cache invalidation", sl.Err(err))
		return
	}
	keys := make([]string, 0, len(list))
	for _, p := range list {
		if p.CategoryID == nil {
			keys = append(keys, cache.ProductKey(owner, p.ID))
		}
	}
	s.invalidate(ctx, keys...)
}

func applyProduct(p *models.Product, req models.DummyProduct) error {
	p.Name = req.Name
	p.CategoryID = req.CategoryID
	p.Barcode = req.Barcode
	if p.Barcode != nil && *p.Barcode == "" {
		p.Barcode = nil
	}

	p.PriceUSD = decimal.Zero
	if req.PriceUSD != nil {
		if err := models.ValidateAmount(*req.PriceUSD); err != nil {
			return err
		}
		p.PriceUSD = *req.PriceUSD
	}
	p.Stock = 0
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	p.MinStock = models.DefaultMinStock
	if req.MinStock != nil {
		p.MinStock = *req.MinStock
	}
	return nil
}
