package routes

import (
	"foodgram/internal/api/handlers"
	"foodgram/internal/middleware"
	"foodgram/pkg/jwt"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	App                 *fiber.App
	RecipeHandler       handlers.RecipeHandler
	ShoppingListHandler handlers.ShoppingListHandler
	CatalogHandler      handlers.CatalogHandler
	UserHandler         handlers.UserHandler
	Middleware          middleware.Middleware
	JWTService          jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.Recipes()
	c.Users()
	c.Catalog()
	c.GuestRoute()
}

func (c *Config) Recipes() {
	auth := c.Middleware.AuthMiddleware(c.JWTService)
	optional := c.Middleware.OptionalAuthMiddleware(c.JWTService)

	recipes := c.App.Group("/api/recipes")
	{
		// registered before /:id so the literal segment wins
		recipes.Get("/download_shopping_cart", auth, c.ShoppingListHandler.DownloadShoppingCart)

		recipes.Get("", optional, c.RecipeHandler.GetRecipes)
		recipes.Post("", auth, c.RecipeHandler.CreateRecipe)
		recipes.Get("/:id", optional, c.RecipeHandler.GetRecipeDetail)
		recipes.Patch("/:id", auth, c.RecipeHandler.UpdateRecipe)
		recipes.Delete("/:id", auth, c.RecipeHandler.DeleteRecipe)
		recipes.Get("/:id/get-link", c.RecipeHandler.GetShortLink)

		recipes.Post("/:id/favorite", auth, c.RecipeHandler.AddFavorite)
		recipes.Delete("/:id/favorite", auth, c.RecipeHandler.RemoveFavorite)
		recipes.Post("/:id/shopping_cart", auth, c.RecipeHandler.AddToShoppingCart)
		recipes.Delete("/:id/shopping_cart", auth, c.RecipeHandler.RemoveFromShoppingCart)
	}
}

func (c *Config) Users() {
	auth := c.Middleware.AuthMiddleware(c.JWTService)
	optional := c.Middleware.OptionalAuthMiddleware(c.JWTService)

	users := c.App.Group("/api/users")
	{
		users.Get("/subscriptions", auth, c.UserHandler.GetSubscriptions)
		users.Get("/me", auth, c.UserHandler.Me)
		users.Put("/me/avatar", auth, c.UserHandler.UpdateAvatar)
		users.Delete("/me/avatar", auth, c.UserHandler.DeleteAvatar)

		users.Get("", optional, c.UserHandler.GetUsers)
		users.Get("/:id", optional, c.UserHandler.GetUser)
		users.Post("/:id/subscribe", auth, c.UserHandler.Subscribe)
		users.Delete("/:id/subscribe", auth, c.UserHandler.Unsubscribe)
	}
}

func (c *Config) Catalog() {
	c.App.Get("/api/tags", c.CatalogHandler.GetTags)
	c.App.Get("/api/tags/:id", c.CatalogHandler.GetTag)
	c.App.Get("/api/ingredients", c.CatalogHandler.GetIngredients)
	c.App.Get("/api/ingredients/:id", c.CatalogHandler.GetIngredient)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	c.App.Get("/s/:code", c.RecipeHandler.RedirectShortLink)
	c.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
