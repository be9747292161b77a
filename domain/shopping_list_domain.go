package domain

var (
	MessageFailedDownloadShoppingCart = "failed to download shopping cart"

	ShoppingCartFileName = "shopping_cart.txt"
)

type (
	// ShoppingListItem is one aggregated line: the total amount of an
	// ingredient across every recipe in the user's shopping cart.
	ShoppingListItem struct {
		IngredientID    string `json:"ingredient_id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		TotalAmount     int64  `json:"total_amount"`
	}
)
