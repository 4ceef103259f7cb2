package tests

import (
	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	"github.com/Hasin-ai/E-commerce-sub001/internal/inventory/service"
)

func (s *IntegrationTestSuite) TestAdjustStock_CreatesRowForNewProduct() {
	inv, err := s.InventoryService.AdjustStock(s.Ctx, 42, 25, "initial stock intake")
	s.Require().NoError(err)
	s.Require().Equal(int32(25), inv.Quantity)

	quantity, reserved := s.counters(42)
	s.Require().Equal(int32(25), quantity)
	s.Require().Equal(int32(0), reserved)
}

func (s *IntegrationTestSuite) TestAdjustStock_CannotDropBelowReserved() {
	s.seedStock(1, 10)

	err := s.InventoryService.Reserve(s.Ctx, "order-adj", []service.ReservationLine{
		{ProductID: 1, Quantity: 6},
	})
	s.Require().NoError(err)

	_, err = s.InventoryService.AdjustStock(s.Ctx, 1, 3, "cycle count")
	s.Require().Error(err)
	s.Require().True(apperr.IsKind(err, apperr.KindConflict))

	quantity, reserved := s.counters(1)
	s.Require().Equal(int32(10), quantity)
	s.Require().Equal(int32(6), reserved)
}

func (s *IntegrationTestSuite) TestGetMovements_NewestFirst() {
	s.seedStock(1, 10)

	lines := []service.ReservationLine{{ProductID: 1, Quantity: 2}}

	s.Require().NoError(s.InventoryService.Reserve(s.Ctx, "order-m1", lines))
	s.Require().NoError(s.InventoryService.Commit(s.Ctx, "order-m1", lines))

	movements, err := s.InventoryService.GetMovements(s.Ctx, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(movements, 2)
	s.Require().Equal("order-m1", movements[0].Reference)
}
