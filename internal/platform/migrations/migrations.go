package migrations

import (
	"gorm.io/gorm"

	orderspostgres "github.com/Apurer/repairshop-api/internal/domains/orders/adapters/persistence/postgres"
	sideeffectspostgres "github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/persistence/postgres"
)

// Run applies the schema for the bounded contexts. Each adapter exports the
// records it owns so the schema and the queries cannot drift apart.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	models := append(orderspostgres.Models(), sideeffectspostgres.Models()...)
	return db.AutoMigrate(models...)
}
