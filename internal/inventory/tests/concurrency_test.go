package tests

import (
	"fmt"
	"sync"

	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	"github.com/Hasin-ai/E-commerce-sub001/internal/inventory/service"
)

// Ten concurrent reservations race for five units. Exactly five must win,
// the rest must fail with insufficient stock, and the counters must never
// show more reserved than on hand.
func (s *IntegrationTestSuite) TestReserve_NoOversellUnderConcurrency() {
	s.seedStock(1, 5)

	const attempts = 10

	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n] = s.InventoryService.Reserve(s.Ctx, fmt.Sprintf("order-c%d", n), []service.ReservationLine{
				{ProductID: 1, Quantity: 1},
			})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range results {
		if err == nil {
			won++
			continue
		}
		s.Require().True(apperr.IsKind(err, apperr.KindInsufficientStock))
	}
	s.Require().Equal(5, won)

	quantity, reserved := s.counters(1)
	s.Require().Equal(int32(5), quantity)
	s.Require().Equal(int32(5), reserved)
}
