package migration

import (
	"fmt"
	"log"

	"foodgram/entities"

	"gorm.io/gorm"
)

const subscriptionCheck = "chk_subscription_not_self"

func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Printf("Error creating uuid-ossp extension: %v", err)
		return err
	}

	models := []struct {
		name  string
		model any
	}{
		{"user", &entities.User{}},
		{"tag", &entities.Tag{}},
		{"ingredient", &entities.Ingredient{}},
		{"recipe", &entities.Recipe{}},
		{"recipe ingredient", &entities.RecipeIngredient{}},
		{"recipe tag", &entities.RecipeTag{}},
		{"favorite", &entities.Favorite{}},
		{"shopping cart", &entities.ShoppingCart{}},
		{"subscription", &entities.Subscription{}},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m.model); err != nil {
			log.Printf("Error migrating %s database: %v", m.name, err)
			return err
		}
	}

	if !db.Migrator().HasConstraint(&entities.Subscription{}, subscriptionCheck) {
		err := db.Exec(fmt.Sprintf(
			"ALTER TABLE subscriptions ADD CONSTRAINT %s CHECK (user_id <> following_id)",
			subscriptionCheck,
		)).Error
		if err != nil {
			log.Printf("Error adding subscription constraint: %v", err)
			return err
		}
	}

	fmt.Println("Database migration complete")
	return nil
}
