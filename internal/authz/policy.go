package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pos-store/internal/lib/metrics"
	"github.com/magabrotheeeer/pos-store/internal/models"
)

// Lookup даёт политике доступ к родительским и связанным строкам.
// Для отсутствующей строки возвращается found == false без ошибки.
type Lookup interface {
	// SaleOwner возвращает владельца продажи.
	SaleOwner(ctx context.Context, saleID uuid.UUID) (owner uuid.UUID, found bool, err error)
	// CategoryOwner возвращает владельца категории.
	CategoryOwner(ctx context.Context, categoryID uuid.UUID) (owner uuid.UUID, found bool, err error)
	// ProductOwner возвращает владельца товара.
	ProductOwner(ctx context.Context, productID uuid.UUID) (owner uuid.UUID, found bool, err error)
	// SubscriptionByUser возвращает подписку пользователя или nil.
	SubscriptionByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

const (
	reasonOwner        = "owner"
	reasonOperation    = "operation"
	reasonReference    = "reference"
	reasonSubscription = "subscription"
	reasonRow          = "row"
)

// Authorizer проверка доступа субъекта к строке.
type Authorizer interface {
	Authorize(ctx context.Context, actor Actor, op Operation, entity Entity, row any) error
}

// Policy вычисляет предикаты доступа для каждой сущности.
type Policy struct {
	lookup Lookup
	now    func() time.Time
}

// NewPolicy создаёт политику. now вызывается при каждой проверке подписки;
// nil означает time.Now.
func NewPolicy(lookup Lookup, now func() time.Time) *Policy {
	if now == nil {
		now = time.Now
	}
	return &Policy{lookup: lookup, now: now}
}

// Can булева форма Authorize. Ошибки хранилища трактуются как отказ.
func (p *Policy) Can(ctx context.Context, actor Actor, op Operation, entity Entity, row any) bool {
	return p.Authorize(ctx, actor, op, entity, row) == nil
}

// Authorize возвращает nil, если операция разрешена, ErrNotFound при отказе,
// ErrSubscriptionInactive при отказе шлюза подписки, либо ошибку хранилища.
func (p *Policy) Authorize(ctx context.Context, actor Actor, op Operation, entity Entity, row any) error {
	const name = "authz.Authorize"
	if actor.System {
		return nil
	}
	if actor.UserUID == uuid.Nil || op == OpUnspecified {
		return p.deny(entity, op, reasonOwner, ErrNotFound)
	}

	var err error
	switch entity {
	case EntityProfile:
		err = p.profile(actor, op, row)
	case EntityCategory:
		err = p.category(actor, op, row)
	case EntityProduct:
		err = p.product(ctx, actor, op, row)
	case EntitySubscription:
		err = p.subscription(actor, op, row)
	case EntitySale:
		err = p.sale(ctx, actor, op, row)
	case EntitySaleItem:
		err = p.saleItem(ctx, actor, op, row)
	default:
		err = p.deny(entity, op, reasonRow, ErrNotFound)
	}
	if err != nil && !isDenial(err) {
		return fmt.Errorf("%s: %w", name, err)
	}
	return err
}

func (p *Policy) profile(actor Actor, op Operation, row any) error {
	r, ok := row.(*models.Profile)
	if !ok || r == nil {
		return p.deny(EntityProfile, op, reasonRow, ErrNotFound)
	}
	if op != OpRead && op != OpUpdate {
		return p.deny(EntityProfile, op, reasonOperation, ErrNotFound)
	}
	if r.ID != actor.UserUID {
		return p.deny(EntityProfile, op, reasonOwner, ErrNotFound)
	}
	return nil
}

func (p *Policy) category(actor Actor, op Operation, row any) error {
	r, ok := row.(*models.Category)
	if !ok || r == nil {
		return p.deny(EntityCategory, op, reasonRow, ErrNotFound)
	}
	if r.UserID != actor.UserUID {
		return p.deny(EntityCategory, op, reasonOwner, ErrNotFound)
	}
	return nil
}

func (p *Policy) product(ctx context.Context, actor Actor, op Operation, row any) error {
	r, ok := row.(*models.Product)
	if !ok || r == nil {
		return p.deny(EntityProduct, op, reasonRow, ErrNotFound)
	}
	if r.UserID != actor.UserUID {
		return p.deny(EntityProduct, op, reasonOwner, ErrNotFound)
	}
	// Товар не может ссылаться на чужую категорию.
	if (op == OpInsert || op == OpUpdate) && r.CategoryID != nil {
		owner, found, err := p.lookup.CategoryOwner(ctx, *r.CategoryID)
		if err != nil {
			return err
		}
		if !found || owner != actor.UserUID {
			return p.deny(EntityProduct, op, reasonReference, ErrNotFound)
		}
	}
	return nil
}

func (p *Policy) subscription(actor Actor, op Operation, row any) error {
	r, ok := row.(*models.Subscription)
	if !ok || r == nil {
		return p.deny(EntitySubscription, op, reasonRow, ErrNotFound)
	}
	if op != OpRead {
		return p.deny(EntitySubscription, op, reasonOperation, ErrNotFound)
	}
	if r.UserID != actor.UserUID {
		return p.deny(EntitySubscription, op, reasonOwner, ErrNotFound)
	}
	return nil
}

func (p *Policy) sale(ctx context.Context, actor Actor, op Operation, row any) error {
	r, ok := row.(*models.Sale)
	if !ok || r == nil {
		return p.deny(EntitySale, op, reasonRow, ErrNotFound)
	}
	if op != OpRead && op != OpInsert {
		return p.deny(EntitySale, op, reasonOperation, ErrNotFound)
	}
	if r.UserID != actor.UserUID {
		return p.deny(EntitySale, op, reasonOwner, ErrNotFound)
	}
	if op == OpRead {
		return nil
	}

	sub, err := p.lookup.SubscriptionByUser(ctx, actor.UserUID)
	if err != nil {
		return err
	}
	if !sub.AllowsSales(p.now()) {
		return p.deny(EntitySale, op, reasonSubscription, ErrSubscriptionInactive)
	}

	// Позиции, вставляемые вместе с продажей, не могут ссылаться на чужие товары.
	for _, it := range r.Items {
		if it.ProductID == nil {
			continue
		}
		owner, found, err := p.lookup.ProductOwner(ctx, *it.ProductID)
		if err != nil {
			return err
		}
		if !found || owner != actor.UserUID {
			return p.deny(EntitySaleItem, OpInsert, reasonReference, ErrNotFound)
		}
	}
	return nil
}

func (p *Policy) saleItem(ctx context.Context, actor Actor, op Operation, row any) error {
	r, ok := row.(*models.SaleItem)
	if !ok || r == nil {
		return p.deny(EntitySaleItem, op, reasonRow, ErrNotFound)
	}
	owner, found, err := p.lookup.SaleOwner(ctx, r.SaleID)
	if err != nil {
		return err
	}
	if !found || owner != actor.UserUID {
		return p.deny(EntitySaleItem, op, reasonOwner, ErrNotFound)
	}
	if (op == OpInsert || op == OpUpdate) && r.ProductID != nil {
		owner, found, err := p.lookup.ProductOwner(ctx, *r.ProductID)
		if err != nil {
			return err
		}
		if !found || owner != actor.UserUID {
			return p.deny(EntitySaleItem, op, reasonReference, ErrNotFound)
		}
	}
	return nil
}

func (p *Policy) deny(entity Entity, op Operation, reason string, err error) error {
	metrics.AuthzDenials.WithLabelValues(entity.String(), op.String(), reason).Inc()
	return err
}

func isDenial(err error) bool {
	return err == ErrNotFound || err == ErrSubscriptionInactive
}

// FilterReadable оставляет только строки, которые субъект может читать.
// Ошибки хранилища прерывают фильтрацию.
func FilterReadable[T any](ctx context.Context, p Authorizer, actor Actor, entity Entity, rows []T) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		err := p.Authorize(ctx, actor, OpRead, entity, row)
		switch {
		case err == nil:
			out = append(out, row)
		case isDenial(err):
			continue
		default:
			return nil, err
		}
	}
	return out, nil
}
