package tests

import (
	"testing"

	"github.com/Hasin-ai/E-commerce-sub001/internal/cart/repository"
	"github.com/Hasin-ai/E-commerce-sub001/internal/cart/service"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/testsuite"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type IntegrationTestSuite struct {
	testsuite.BaseSuite

	CartService service.CartService
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.BaseSuite.SetupInfrastructure("../../../migrations")
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.BaseSuite.TearDownInfrastructure()
}

func (s *IntegrationTestSuite) SetupTest() {
	s.BaseSuite.TruncateTable("cart_items")
	s.BaseSuite.TruncateTable("carts")

	logger := zap.NewNop()
	cartRepo := repository.NewCartRepository(s.DbPool, logger)
	s.CartService = service.NewCartService(s.DbPool, cartRepo, logger)
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
