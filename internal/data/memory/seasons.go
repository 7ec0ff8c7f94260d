package memory

import (
	"context"
	"sort"

	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/season"
	"github.com/shopspring/decimal"
)

type seasonRepo struct{ st *state }

// activeOther returns the id of an ACTIVE season other than id, or zero
func (r seasonRepo) activeOther(id int64) int64 {
	for _, s := range r.st.seasons.rows {
		if s.Status == season.StatusActive && s.ID != id {
			return s.ID
		}
	}
	return 0
}

func (r seasonRepo) Create(_ context.Context, s *season.Season) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	if s.Status == season.StatusActive {
		if other := r.activeOther(0); other != 0 {
			return season.ErrActiveSeasonExists{ActiveID: other}
		}
	}
	s.ID = r.st.seasons.nextID()
	r.st.seasons.rows[s.ID] = *s
	return nil
}

func (r seasonRepo) Update(_ context.Context, s *season.Season) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	if _, ok := r.st.seasons.rows[s.ID]; !ok {
		return season.ErrSeasonNotFound{SeasonID: s.ID}
	}
	if s.Status == season.StatusActive {
		if other := r.activeOther(s.ID); other != 0 {
			return season.ErrActiveSeasonExists{ActiveID: other}
		}
	}
	r.st.seasons.rows[s.ID] = *s
	return nil
}

func (r seasonRepo) Delete(_ context.Context, id int64) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	if _, ok := r.st.seasons.rows[id]; !ok {
		return season.ErrSeasonNotFound{SeasonID: id}
	}
	delete(r.st.seasons.rows, id)
	return nil
}

func (r seasonRepo) GetByID(_ context.Context, id int64) (*season.Season, error) {
	s, ok := r.st.seasons.rows[id]
	if !ok {
		return nil, season.ErrSeasonNotFound{SeasonID: id}
	}
	return &s, nil
}

func (r seasonRepo) List(_ context.Context) ([]*season.Season, error) {
	seasons := make([]*season.Season, 0, len(r.st.seasons.rows))
	for _, s := range r.st.seasons.rows {
		s := s
		seasons = append(seasons, &s)
	}
	sort.Slice(seasons, func(i, j int) bool {
		if !seasons[i].StartDate.Equal(seasons[j].StartDate) {
			return seasons[i].StartDate.After(seasons[j].StartDate)
		}
		return seasons[i].ID > seasons[j].ID
	})
	return seasons, nil
}

func (r seasonRepo) GetActive(ctx context.Context) (*season.Season, error) {
	id := r.activeOther(0)
	if id == 0 {
		return nil, season.ErrNoActiveSeason
	}
	return r.GetByID(ctx, id)
}

func tagged(seasonID *int64, id int64) bool {
	return seasonID != nil && *seasonID == id
}

func (r seasonRepo) InUse(_ context.Context, id int64) (bool, error) {
	for _, p := range r.st.purchases.rows {
		if tagged(p.SeasonID, id) {
			return true, nil
		}
	}
	for _, s := range r.st.sales.rows {
		if tagged(s.SeasonID, id) {
			return true, nil
		}
	}
	for _, e := range r.st.expenses.rows {
		if tagged(e.SeasonID, id) {
			return true, nil
		}
	}
	return false, nil
}

// returned sums the live returns of kind per original record
func (r recordRepo) returned(kind business.ReturnKind) map[int64]business.Return {
	sums := make(map[int64]business.Return)
	for _, ret := range r.st.returns.rows {
		if ret.Kind != kind || ret.IsReversed() {
			continue
		}
		sum, ok := sums[ret.OriginalID]
		if !ok {
			sum = business.Return{Quantity: decimal.Zero, Amount: decimal.Zero, Cost: decimal.Zero}
		}
		sum.Quantity = sum.Quantity.Add(ret.Quantity)
		sum.Amount = sum.Amount.Add(ret.Amount)
		sum.Cost = sum.Cost.Add(ret.Cost)
		sums[ret.OriginalID] = sum
	}
	return sums
}

func (r recordRepo) SeasonTotals(_ context.Context, seasonID int64) (*business.SeasonTotals, error) {
	t := &business.SeasonTotals{Revenue: decimal.Zero, COGS: decimal.Zero, PurchaseCost: decimal.Zero, Expenses: decimal.Zero}

	saleReturns := r.returned(business.ReturnKindSale)
	for _, s := range r.st.sales.rows {
		if !tagged(s.SeasonID, seasonID) || s.IsReversed() {
			continue
		}
		back := saleReturns[s.ID]
		t.Revenue = t.Revenue.Add(s.Total).Sub(back.Amount)
		t.COGS = t.COGS.Add(s.COGS).Sub(back.Cost)
	}
	purchaseReturns := r.returned(business.ReturnKindPurchase)
	for _, p := range r.st.purchases.rows {
		if !tagged(p.SeasonID, seasonID) || p.IsReversed() {
			continue
		}
		t.PurchaseCost = t.PurchaseCost.Add(p.Total).Sub(purchaseReturns[p.ID].Amount)
	}
	for _, e := range r.st.expenses.rows {
		if tagged(e.SeasonID, seasonID) && !e.IsReversed() {
			t.Expenses = t.Expenses.Add(e.Amount)
		}
	}
	return t, nil
}

func (r recordRepo) ItemSales(_ context.Context, seasonID *int64) ([]*business.ItemSales, error) {
	saleReturns := r.returned(business.ReturnKindSale)
	byItem := make(map[int64]*business.ItemSales)
	for _, s := range r.st.sales.rows {
		if s.IsReversed() || (seasonID != nil && !tagged(s.SeasonID, *seasonID)) {
			continue
		}
		sum, ok := byItem[s.ItemID]
		if !ok {
			sum = &business.ItemSales{ItemID: s.ItemID, Quantity: decimal.Zero, Revenue: decimal.Zero, COGS: decimal.Zero}
			byItem[s.ItemID] = sum
		}
		back := saleReturns[s.ID]
		sum.Quantity = sum.Quantity.Add(s.Quantity).Sub(back.Quantity)
		sum.Revenue = sum.Revenue.Add(s.Total).Sub(back.Amount)
		sum.COGS = sum.COGS.Add(s.COGS).Sub(back.Cost)
	}

	sales := make([]*business.ItemSales, 0, len(byItem))
	for _, sum := range byItem {
		sales = append(sales, sum)
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].ItemID < sales[j].ItemID })
	return sales, nil
}
