package reporting

import (
	"context"
	"strconv"

	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SeasonPerformance reports revenue, cost and profit of the records tagged with a season
func (s *Service) SeasonPerformance(ctx context.Context, seasonID int64) (*SeasonPerformance, error) {
	key := "season-performance:" + strconv.FormatInt(seasonID, 10)
	return cached(ctx, s, key, func(ctx context.Context, st unitofwork.Store) (*SeasonPerformance, error) {
		sn, err := st.Seasons().GetByID(ctx, seasonID)
		if err != nil {
			return nil, err
		}
		totals, err := st.Records().SeasonTotals(ctx, seasonID)
		if err != nil {
			return nil, err
		}

		return &SeasonPerformance{
			Season:       sn,
			Revenue:      totals.Revenue,
			COGS:         totals.COGS,
			GrossProfit:  totals.Revenue.Sub(totals.COGS),
			PurchaseCost: totals.PurchaseCost,
			Expenses:     totals.Expenses,
			NetProfit:    totals.Revenue.Sub(totals.PurchaseCost).Sub(totals.Expenses),
		}, nil
	})
}

// ItemMargins reports gross profit per item, over every sale or only those of one season
func (s *Service) ItemMargins(ctx context.Context, seasonID *int64) (*ItemMargins, error) {
	key := "item-margins:all"
	if seasonID != nil {
		key = "item-margins:" + strconv.FormatInt(*seasonID, 10)
	}
	return cached(ctx, s, key, func(ctx context.Context, st unitofwork.Store) (*ItemMargins, error) {
		if seasonID != nil {
			if _, err := st.Seasons().GetByID(ctx, *seasonID); err != nil {
				return nil, err
			}
		}
		sales, err := st.Records().ItemSales(ctx, seasonID)
		if err != nil {
			return nil, err
		}

		m := &ItemMargins{SeasonID: seasonID, Rows: make([]ItemMargin, 0, len(sales)), Revenue: decimal.Zero, GrossProfit: decimal.Zero}
		for _, sold := range sales {
			item, err := st.Inventory().GetItem(ctx, sold.ItemID)
			if err != nil {
				return nil, err
			}
			profit := sold.Revenue.Sub(sold.COGS)
			margin := decimal.Zero
			if sold.Revenue.IsPositive() {
				margin = profit.Div(sold.Revenue).Mul(hundred).Round(2)
			}
			m.Rows = append(m.Rows, ItemMargin{
				ItemID:        item.ID,
				Name:          item.Name,
				Unit:          item.Unit,
				Quantity:      sold.Quantity,
				Revenue:       sold.Revenue,
				COGS:          sold.COGS,
				GrossProfit:   profit,
				MarginPercent: margin,
			})
			m.Revenue = m.Revenue.Add(sold.Revenue)
			m.GrossProfit = m.GrossProfit.Add(profit)
		}
		return m, nil
	})
}
