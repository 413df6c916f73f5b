package checkout

import (
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/cart"
	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
	"github.com/frahmantamala/hosted-checkout/internal/gateway"
)

const (
	// LimitItemName caps line item names sent to the gateway.
	LimitItemName = 127

	shippingDisplayHide = "HIDE"
)

// RequestBuilder turns shop state into gateway request blocks.
type RequestBuilder struct {
	settings Settings
}

func NewRequestBuilder(settings Settings) *RequestBuilder {
	return &RequestBuilder{settings: settings}
}

func (b *RequestBuilder) OrderRequest(reference string, c *cart.Cart) gatewaytypes.OrderRequest {
	items := make([]gatewaytypes.OrderItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, gatewaytypes.OrderItem{
			Name:      gateway.Safe(item.Name, LimitItemName),
			SKU:       gateway.Safe(item.SKU, LimitItemName),
			Quantity:  item.Quantity,
			UnitPrice: gateway.Numeric(item.UnitPrice),
		})
	}

	return gatewaytypes.OrderRequest{
		ID:                        reference,
		Currency:                  c.CurrencyCode,
		Amount:                    gateway.Numeric(c.OrderTotal()),
		Items:                     items,
		ItemAmount:                gateway.Numeric(c.ItemAmount()),
		ShippingAndHandlingAmount: gateway.Numeric(c.ShippingAmount),
	}
}

// Interaction builds the hosted page display block. Shipping is always hidden and the
// analytics block is omitted unless a tracking id is configured.
func (b *RequestBuilder) Interaction(shop ShopContext) gatewaytypes.InteractionConfig {
	is := b.settings.Interaction

	name := shop.ShopName
	if name == "" {
		name = is.ShopName
	}

	cfg := gatewaytypes.InteractionConfig{
		Operation: is.Operation,
		Theme:     is.Theme,
		DisplayControl: gatewaytypes.DisplayControl{
			Shipping:       shippingDisplayHide,
			BillingAddress: is.ShowBilling,
			CustomerEmail:  is.ShowEmail,
			OrderSummary:   is.ShowSummary,
		},
		Merchant: gatewaytypes.MerchantInfo{
			Name: gateway.Safe(name, gateway.LimitMerchantName),
		},
	}
	if is.GATrackingID != "" {
		cfg.GoogleAnalytics = &gatewaytypes.GoogleAnalytics{PropertyID: is.GATrackingID}
	}
	return cfg
}

func (b *RequestBuilder) Billing(addr *cart.Address) gatewaytypes.BillingInfo {
	if addr == nil {
		return gatewaytypes.BillingInfo{}
	}
	return gatewaytypes.BillingInfo{
		Address: gatewaytypes.BillingAddress{
			City:        gateway.Safe(addr.City, gateway.LimitCity),
			Country:     gateway.CountryISO3(addr.CountryISO2),
			PostcodeZip: gateway.Safe(addr.Postcode, gateway.LimitPostcode),
			Street:      gateway.Safe(addr.Street, gateway.LimitStreet),
			Street2:     gateway.Safe(addr.Street2, gateway.LimitStreet),
		},
	}
}

func (b *RequestBuilder) Customer(c *cart.Customer) gatewaytypes.CustomerInfo {
	if c == nil {
		return gatewaytypes.CustomerInfo{}
	}
	return gatewaytypes.CustomerInfo{
		Email:     c.Email,
		FirstName: gateway.Safe(c.FirstName, gateway.LimitName),
		LastName:  gateway.Safe(c.LastName, gateway.LimitName),
	}
}
