package orders

import (
	"context"
	"sort"
	"time"

	"food-order-bot/apperr"
	"food-order-bot/models"
	"food-order-bot/store"

	"github.com/shopspring/decimal"
)

type ProductSales struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// Stats aggregates the orders of a period. Money figures exclude cancelled
// orders.
type Stats struct {
	From           time.Time                  `json:"from"`
	To             time.Time                  `json:"to"`
	Orders         int                        `json:"orders"`
	ByStatus       map[models.OrderStatus]int `json:"by_status"`
	CancelledCount int                        `json:"cancelled_count"`
	Revenue        float64                    `json:"revenue"`
	AverageTicket  float64                    `json:"average_ticket"`
	CashTotal      float64                    `json:"cash_total"`
	TransferTotal  float64                    `json:"transfer_total"`
	DeliveryCount  int                        `json:"delivery_count"`
	PickupCount    int                        `json:"pickup_count"`
	TopProducts    []ProductSales             `json:"top_products"`
}

const topProducts = 5

// Stats summarizes the orders created in [from, to).
func (s *Service) Stats(ctx context.Context, tenantID string, from, to time.Time) (*Stats, error) {
	if !to.After(from) {
		return nil, apperr.BadRequest("stats period end must be after its start")
	}
	list, err := s.repo.List(ctx, tenantID, store.OrderFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	st := Summarize(list)
	st.From, st.To = from, to
	return &st, nil
}

func Summarize(list []models.Order) Stats {
	st := Stats{ByStatus: map[models.OrderStatus]int{}, TopProducts: []ProductSales{}}
	revenue, cash, transfer := decimal.Zero, decimal.Zero, decimal.Zero
	products := map[string]*ProductSales{}

	for _, o := range list {
		st.Orders++
		st.ByStatus[o.Status]++
		if o.Status == models.StatusCancelled {
			st.CancelledCount++
			continue
		}
		total := decimal.NewFromFloat(o.Total)
		revenue = revenue.Add(total)
		switch o.PaymentMethod {
		case models.PaymentCash:
			cash = cash.Add(total)
		case models.PaymentTransfer:
			transfer = transfer.Add(total)
		}
		if o.OrderType == models.OrderTypeDelivery {
			st.DeliveryCount++
		} else {
			st.PickupCount++
		}
		for _, it := range o.Items {
			p, ok := products[it.ProductID]
			if !ok {
				p = &ProductSales{ProductID: it.ProductID, Name: it.ProductName}
				products[it.ProductID] = p
			}
			p.Quantity += it.Quantity
			p.Revenue, _ = decimal.NewFromFloat(p.Revenue).Add(decimal.NewFromFloat(it.ItemTotal)).Float64()
		}
	}

	st.Revenue, _ = revenue.Float64()
	st.CashTotal, _ = cash.Float64()
	st.TransferTotal, _ = transfer.Float64()
	if billed := st.Orders - st.CancelledCount; billed > 0 {
		st.AverageTicket, _ = revenue.Div(decimal.NewFromInt(int64(billed))).Round(2).Float64()
	}

	for _, p := range products {
		st.TopProducts = append(st.TopProducts, *p)
	}
	sort.Slice(st.TopProducts, func(i, j int) bool {
		a, b := st.TopProducts[i], st.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Name < b.Name
	})
	if len(st.TopProducts) > topProducts {
		st.TopProducts = st.TopProducts[:topProducts]
	}
	return st
}
