package entities

import (
	"github.com/google/uuid"
)

type Recipe struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	ImageURL    string    `gorm:"not null" json:"image_url"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CookingTime int       `gorm:"not null;check:cooking_time >= 1" json:"cooking_time"`

	Author      *User               `gorm:"foreignKey:AuthorID"`
	Ingredients []*RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Tags        []*RecipeTag        `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Timestamp
}

// RecipeIngredient holds the amount of one ingredient in one recipe. Rows are
// never patched: a recipe update deletes them all and inserts the new set.
type RecipeIngredient struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID     uuid.UUID `gorm:"type:uuid;not null;index" json:"recipe_id"`
	IngredientID uuid.UUID `gorm:"type:uuid;not null;index" json:"ingredient_id"`
	Amount       int       `gorm:"not null;check:amount >= 1" json:"amount"`
	Position     int       `gorm:"not null" json:"position"`

	Recipe     *Recipe     `gorm:"foreignKey:RecipeID"`
	Ingredient *Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:RESTRICT"`
}

type RecipeTag struct {
	RecipeID uuid.UUID `gorm:"type:uuid;primaryKey" json:"recipe_id"`
	TagID    uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"tag_id"`

	Recipe *Recipe `gorm:"foreignKey:RecipeID"`
	Tag    *Tag    `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}
