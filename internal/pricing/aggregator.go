package pricing

import "serenity/pkg/model"

// Quote is the aggregated price snapshot for a set of catalog services.
// All amounts are in the smallest currency unit.
type Quote struct {
	Lines             []model.ServiceLine
	TotalAmount       int64
	DiscountAmount    int64
	FinalAmount       int64
	EstimatedDuration int
}

// Aggregate folds the catalog services into a single quote. The total is
// the sum of list prices, the discount is the sum of per-line reductions
// where a discount price undercuts the list price, and the final amount
// is total minus discount. Line order follows the input order.
func Aggregate(services []*model.Service) Quote {
	q := Quote{
		Lines: make([]model.ServiceLine, 0, len(services)),
	}

	for _, svc := range services {
		line := model.ServiceLine{
			ServiceID:     svc.ID,
			Name:          svc.Name,
			Price:         svc.Price,
			DiscountPrice: svc.DiscountPrice,
			Duration:      svc.Duration,
		}
		q.Lines = append(q.Lines, line)

		q.TotalAmount += svc.Price
		if svc.DiscountPrice != nil && *svc.DiscountPrice < svc.Price {
			q.DiscountAmount += svc.Price - *svc.DiscountPrice
		}
		q.EstimatedDuration += svc.Duration
	}

	q.FinalAmount = q.TotalAmount - q.DiscountAmount
	return q
}
