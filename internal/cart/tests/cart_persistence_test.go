package tests

import (
	"github.com/Hasin-ai/E-commerce-sub001/internal/apperr"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/money"
)

func (s *IntegrationTestSuite) TestAddItem_CreatesCartAndPersistsLines() {
	cart, err := s.CartService.AddItem(s.Ctx, 7, 10, "SKU-KB", "Keyboard", money.MustNew("49.99", "USD"), 2)
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)

	cart, err = s.CartService.AddItem(s.Ctx, 7, 20, "SKU-MS", "Mouse", money.MustNew("19.50", "USD"), 1)
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 2)
	s.Require().Equal("119.48 USD", cart.TotalAmount.String())

	reloaded, err := s.CartService.GetCart(s.Ctx, 7)
	s.Require().NoError(err)
	s.Require().Len(reloaded.Items, 2)
	s.Require().Equal("SKU-KB", reloaded.Items[0].SKU)
	s.Require().Equal("119.48 USD", reloaded.TotalAmount.String())
}

func (s *IntegrationTestSuite) TestAddItem_SameProductMergesQuantity() {
	_, err := s.CartService.AddItem(s.Ctx, 7, 10, "SKU-KB", "Keyboard", money.MustNew("49.99", "USD"), 1)
	s.Require().NoError(err)

	cart, err := s.CartService.AddItem(s.Ctx, 7, 10, "SKU-KB", "Keyboard", money.MustNew("49.99", "USD"), 2)
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)
	s.Require().Equal(int32(3), cart.Items[0].Quantity)

	reloaded, err := s.CartService.GetCart(s.Ctx, 7)
	s.Require().NoError(err)
	s.Require().Equal(int32(3), reloaded.Items[0].Quantity)
}

func (s *IntegrationTestSuite) TestUpdateItemQuantity_Persists() {
	_, err := s.CartService.AddItem(s.Ctx, 7, 10, "SKU-KB", "Keyboard", money.MustNew("49.99", "USD"), 2)
	s.Require().NoError(err)

	_, err = s.CartService.UpdateItemQuantity(s.Ctx, 7, 10, 5)
	s.Require().NoError(err)

	reloaded, err := s.CartService.GetCart(s.Ctx, 7)
	s.Require().NoError(err)
	s.Require().Equal(int32(5), reloaded.Items[0].Quantity)
	s.Require().Equal("249.95 USD", reloaded.TotalAmount.String())

	_, err = s.CartService.UpdateItemQuantity(s.Ctx, 7, 10, 0)
	s.Require().Error(err)
	s.Require().True(apperr.IsKind(err, apperr.KindValidation))
}

func (s *IntegrationTestSuite) TestRemoveItem() {
	_, err := s.CartService.AddItem(s.Ctx, 7, 10, "SKU-KB", "Keyboard", money.MustNew("49.99", "USD"), 1)
	s.Require().NoError(err)

	cart, err := s.CartService.RemoveItem(s.Ctx, 7, 10)
	s.Require().NoError(err)
	s.Require().Empty(cart.Items)

	// absent product is a no-op
	_, err = s.CartService.RemoveItem(s.Ctx, 7, 999)
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) TestClearCart_KeepsEmptyCartRow() {
	_, err := s.CartService.AddItem(s.Ctx, 7, 10, "SKU-KB", "Keyboard", money.MustNew("49.99", "USD"), 2)
	s.Require().NoError(err)

	err = s.CartService.ClearCart(s.Ctx, 7)
	s.Require().NoError(err)

	cart, err := s.CartService.GetCart(s.Ctx, 7)
	s.Require().NoError(err)
	s.Require().Empty(cart.Items)
	s.Require().True(cart.TotalAmount.IsZero())
}

func (s *IntegrationTestSuite) TestGetCart_NotFound() {
	_, err := s.CartService.GetCart(s.Ctx, 404)
	s.Require().Error(err)
	s.Require().True(apperr.IsKind(err, apperr.KindNotFound))
}
