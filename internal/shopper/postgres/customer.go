package postgres

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/cart"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) GetCustomerByEmail(ctx context.Context, email string) (*cart.Customer, error) {
	var c cart.Customer
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&c).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("Customer not found", errors.ErrCodeInvalidCustomer)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) GetCart(ctx context.Context, cartID int64) (*cart.Cart, error) {
	var c cart.Cart
	err := r.db.WithContext(ctx).Where("id = ?", cartID).First(&c).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrCartNotFound
		}
		return nil, err
	}
	return &c, nil
}
