package postgres

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/checkout"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/cart"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/order"
)

// OrderRepository stores local orders with their payments and status history.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) GetCustomer(ctx context.Context, customerID int64) (*cart.Customer, error) {
	var c cart.Customer
	err := r.db.WithContext(ctx).Where("id = ?", customerID).First(&c).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("Customer not found", errors.ErrCodeInvalidCustomer)
		}
		return nil, err
	}
	return &c, nil
}

// CreateOrGetOrder inserts the order for the cart unless one exists already. The unique
// cart_id index decides the race between concurrent callers; the loser reads the winner's row.
func (r *OrderRepository) CreateOrGetOrder(ctx context.Context, req checkout.CreateOrderRequest) (*order.Order, bool, error) {
	o := &order.Order{
		CartID:       req.CartID,
		CustomerID:   req.CustomerID,
		Reference:    req.Reference,
		Status:       req.Status,
		Amount:       req.Amount,
		CartTotal:    req.CartTotal,
		CurrencyCode: req.Currency,
		PaymentCode:  req.PaymentCode,
		SecureKey:    req.SecureKey,
	}

	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "cart_id"}}, DoNothing: true}).
			Create(o)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected > 0

		if created {
			return tx.Create(&order.History{
				OrderID:  o.ID,
				ToStatus: o.Status,
				Source:   "create",
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	existing, err := r.getBy(ctx, "cart_id = ?", req.CartID)
	if err != nil {
		return nil, false, err
	}
	return existing, created, nil
}

// RefreshOrder reloads o from the database, payments and history included.
func (r *OrderRepository) RefreshOrder(ctx context.Context, o *order.Order) error {
	fresh, err := r.getBy(ctx, "id = ?", o.ID)
	if err != nil {
		return err
	}
	*o = *fresh
	return nil
}

// SaveOrder writes the order row and inserts payments and history entries not yet stored.
// A payment whose transaction is already recorded is skipped.
func (r *OrderRepository) SaveOrder(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(o).Error; err != nil {
			return err
		}

		for i := range o.Payments {
			p := &o.Payments[i]
			if p.ID != 0 {
				continue
			}
			p.OrderID = o.ID
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "order_id"}, {Name: "transaction_id"}},
				DoNothing: true,
			}).Create(p).Error
			if err != nil {
				return err
			}
		}

		for i := range o.History {
			h := &o.History[i]
			if h.ID != 0 {
				continue
			}
			h.OrderID = o.ID
			if err := tx.Create(h).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *OrderRepository) GetByReference(ctx context.Context, reference string) (*order.Order, error) {
	return r.getBy(ctx, "reference = ?", reference)
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	return r.getBy(ctx, "id = ?", id)
}

func (r *OrderRepository) getBy(ctx context.Context, query string, arg interface{}) (*order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where(query, arg).
		First(&o).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}
