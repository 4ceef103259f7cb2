package tests

import (
	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	"github.com/Hasin-ai/E-commerce-sub001/internal/inventory/service"
)

func (s *IntegrationTestSuite) TestReserveThenCommit() {
	s.seedStock(1, 10)

	lines := []service.ReservationLine{{ProductID: 1, Quantity: 4}}

	err := s.InventoryService.Reserve(s.Ctx, "order-1", lines)
	s.Require().NoError(err)

	quantity, reserved := s.counters(1)
	s.Require().Equal(int32(10), quantity)
	s.Require().Equal(int32(4), reserved)

	err = s.InventoryService.Commit(s.Ctx, "order-1", lines)
	s.Require().NoError(err)

	quantity, reserved = s.counters(1)
	s.Require().Equal(int32(6), quantity)
	s.Require().Equal(int32(0), reserved)

	s.Require().Equal(1, s.movementCount("order-1", "RESERVED"))
	s.Require().Equal(1, s.movementCount("order-1", "STOCK_OUT"))
}

func (s *IntegrationTestSuite) TestReserve_InsufficientStock() {
	s.seedStock(1, 2)

	err := s.InventoryService.Reserve(s.Ctx, "order-2", []service.ReservationLine{
		{ProductID: 1, Quantity: 5},
	})
	s.Require().Error(err)
	s.Require().True(apperr.IsKind(err, apperr.KindInsufficientStock))

	quantity, reserved := s.counters(1)
	s.Require().Equal(int32(2), quantity)
	s.Require().Equal(int32(0), reserved)
	s.Require().Equal(0, s.movementCount("order-2", "RESERVED"))
}

func (s *IntegrationTestSuite) TestReserve_MultiLineRollsBackTogether() {
	s.seedStock(1, 10)
	s.seedStock(2, 1)

	err := s.InventoryService.Reserve(s.Ctx, "order-3", []service.ReservationLine{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 5},
	})
	s.Require().Error(err)
	s.Require().True(apperr.IsKind(err, apperr.KindInsufficientStock))

	_, reserved := s.counters(1)
	s.Require().Equal(int32(0), reserved)
	_, reserved = s.counters(2)
	s.Require().Equal(int32(0), reserved)
}

func (s *IntegrationTestSuite) TestRelease_Idempotent() {
	s.seedStock(1, 10)

	lines := []service.ReservationLine{{ProductID: 1, Quantity: 3}}

	err := s.InventoryService.Reserve(s.Ctx, "order-4", lines)
	s.Require().NoError(err)

	err = s.InventoryService.Release(s.Ctx, "order-4", lines)
	s.Require().NoError(err)

	err = s.InventoryService.Release(s.Ctx, "order-4", lines)
	s.Require().NoError(err)

	quantity, reserved := s.counters(1)
	s.Require().Equal(int32(10), quantity)
	s.Require().Equal(int32(0), reserved)
	s.Require().Equal(1, s.movementCount("order-4", "RELEASED"))
}

func (s *IntegrationTestSuite) TestCommit_AfterReleaseIsNoOp() {
	s.seedStock(1, 10)

	lines := []service.ReservationLine{{ProductID: 1, Quantity: 3}}

	err := s.InventoryService.Reserve(s.Ctx, "order-5", lines)
	s.Require().NoError(err)

	err = s.InventoryService.Release(s.Ctx, "order-5", lines)
	s.Require().NoError(err)

	err = s.InventoryService.Commit(s.Ctx, "order-5", lines)
	s.Require().NoError(err)

	quantity, reserved := s.counters(1)
	s.Require().Equal(int32(10), quantity)
	s.Require().Equal(int32(0), reserved)
	s.Require().Equal(0, s.movementCount("order-5", "STOCK_OUT"))
}

func (s *IntegrationTestSuite) TestCommit_Idempotent() {
	s.seedStock(1, 10)

	lines := []service.ReservationLine{{ProductID: 1, Quantity: 4}}

	err := s.InventoryService.Reserve(s.Ctx, "order-6", lines)
	s.Require().NoError(err)

	err = s.InventoryService.Commit(s.Ctx, "order-6", lines)
	s.Require().NoError(err)

	err = s.InventoryService.Commit(s.Ctx, "order-6", lines)
	s.Require().NoError(err)

	quantity, reserved := s.counters(1)
	s.Require().Equal(int32(6), quantity)
	s.Require().Equal(int32(0), reserved)
	s.Require().Equal(1, s.movementCount("order-6", "STOCK_OUT"))
}
