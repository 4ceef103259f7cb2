package tests

import (
	"testing"

	"github.com/Hasin-ai/E-commerce-sub001/internal/inventory/repository"
	"github.com/Hasin-ai/E-commerce-sub001/internal/inventory/service"
	"github.com/Hasin-ai/E-commerce-sub001/pkg/testsuite"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type IntegrationTestSuite struct {
	testsuite.BaseSuite

	InventoryService *service.InventoryService
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.BaseSuite.SetupInfrastructure("../../../migrations")
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.BaseSuite.TearDownInfrastructure()
}

func (s *IntegrationTestSuite) SetupTest() {
	s.BaseSuite.TruncateTable("inventory_movements")
	s.BaseSuite.TruncateTable("inventory")

	logger := zap.NewNop()
	inventoryRepo := repository.NewInventoryRepository(s.DbPool, logger)
	s.InventoryService = service.NewInventoryService(s.DbPool, inventoryRepo, logger)
}

func (s *IntegrationTestSuite) seedStock(productID int64, quantity int32) {
	query := `
		INSERT INTO inventory (product_id, quantity)
		VALUES ($1, $2)
	`

	_, err := s.DbPool.Exec(s.Ctx, query, productID, quantity)
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) counters(productID int64) (int32, int32) {
	query := `
		SELECT quantity, reserved_quantity
		FROM inventory
		WHERE product_id = $1
	`

	var quantity, reserved int32
	err := s.DbPool.QueryRow(s.Ctx, query, productID).Scan(&quantity, &reserved)
	s.Require().NoError(err)

	return quantity, reserved
}

func (s *IntegrationTestSuite) movementCount(reference string, movementType string) int {
	query := `
		SELECT count(*)
		FROM inventory_movements
		WHERE reference = $1 AND type = $2
	`

	var count int
	err := s.DbPool.QueryRow(s.Ctx, query, reference, movementType).Scan(&count)
	s.Require().NoError(err)

	return count
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
