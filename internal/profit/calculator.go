package profit

import (
	"github.com/sells-group/vest-cli/internal/model"
)

// Input describes one resale to price out.
type Input struct {
	SalePrice float64 `json:"sale_price"`
	BuyPrice  float64 `json:"buy_price"`
	// ShippingCost overrides the category default when set.
	ShippingCost *float64 `json:"shipping_cost,omitempty"`
	Category     string   `json:"category,omitempty"`
	PromotedRate float64  `json:"promoted_rate,omitempty"`
}

// Calculator computes net profit against a fee schedule.
type Calculator struct {
	fees FeeSchedule
}

// NewCalculator creates a Calculator with the given fee schedule.
func NewCalculator(fees FeeSchedule) *Calculator {
	return &Calculator{fees: fees}
}

// Default returns a Calculator over DefaultFeeSchedule.
func Default() *Calculator {
	return NewCalculator(DefaultFeeSchedule())
}

// Fees returns the calculator's fee schedule.
func (c *Calculator) Fees() FeeSchedule {
	return c.fees
}

// Shipping resolves the shipping cost: an explicit override wins over the
// category default.
func (c *Calculator) Shipping(override *float64, category string) float64 {
	if override != nil {
		return model.Sanitize(*override)
	}
	return c.fees.ShippingFor(category)
}

// Compute returns the full profit breakdown. Each fee is rounded to cents
// before totals are taken so netProfit = sale - costs - buy holds to the cent.
func (c *Calculator) Compute(in Input) model.ProfitBreakdown {
	sale := model.RoundCents(model.Sanitize(in.SalePrice))
	buy := model.RoundCents(model.Sanitize(in.BuyPrice))
	shipping := model.RoundCents(c.Shipping(in.ShippingCost, in.Category))
	promoted := model.Clamp(model.Sanitize(in.PromotedRate), 0, c.fees.MaxPromotedRate)

	fvf := model.RoundCents((sale + shipping) * c.fees.FinalValueRate(in.Category))
	payment := model.RoundCents(sale*c.fees.PaymentRate + c.fees.PaymentFixed)
	promotedFee := model.RoundCents(sale * promoted)

	total := model.RoundCents(fvf + payment + promotedFee + shipping)
	net := model.RoundCents(sale - total - buy)

	return model.ProfitBreakdown{
		ExpectedSalePrice:    sale,
		EbayFinalValueFee:    fvf,
		PaymentProcessingFee: payment,
		ShippingCost:         shipping,
		PromotedListingFee:   promotedFee,
		TotalPlatformCosts:   total,
		BuyPrice:             buy,
		NetProfit:            net,
		ROI:                  model.RoundRatio(model.SafeRatio(net, buy+shipping, 0)),
		EffectiveMargin:      model.RoundRatio(model.SafeRatio(net, sale, 0)),
	}
}

// MaxBuyPrice returns the highest buy price that still leaves targetProfit
// after platform costs. Platform costs depend only on the sale price, so the
// formula inverts directly. Floored at zero.
func (c *Calculator) MaxBuyPrice(salePrice, targetProfit float64, shipping *float64, category string, promotedRate float64) float64 {
	b := c.Compute(Input{
		SalePrice:    salePrice,
		ShippingCost: shipping,
		Category:     category,
		PromotedRate: promotedRate,
	})
	return model.RoundCents(model.Sanitize(b.ExpectedSalePrice - b.TotalPlatformCosts - targetProfit))
}
