package postgres

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/checkout"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/cart"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) GetCart(ctx context.Context, cartID int64) (*cart.Cart, error) {
	var c cart.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", cartID).
		First(&c).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrCartNotFound
		}
		return nil, err
	}
	return &c, nil
}

// LoadShop loads the cart with its owner and invoice address. A missing customer or
// address is left nil; the checkout phases decide whether that matters.
func (r *CartRepository) LoadShop(ctx context.Context, cartID int64) (checkout.ShopContext, error) {
	c, err := r.GetCart(ctx, cartID)
	if err != nil {
		return checkout.ShopContext{}, err
	}
	shop := checkout.ShopContext{Cart: c}

	var customer cart.Customer
	err = r.db.WithContext(ctx).Where("id = ?", c.CustomerID).First(&customer).Error
	switch {
	case err == nil:
		shop.Customer = &customer
	case !stderrors.Is(err, gorm.ErrRecordNotFound):
		return checkout.ShopContext{}, err
	}

	if c.InvoiceAddressID != 0 {
		var addr cart.Address
		err = r.db.WithContext(ctx).Where("id = ?", c.InvoiceAddressID).First(&addr).Error
		switch {
		case err == nil:
			shop.Address = &addr
		case !stderrors.Is(err, gorm.ErrRecordNotFound):
			return checkout.ShopContext{}, err
		}
	}

	return shop, nil
}
