package config

import (
	"os"
	"path/filepath"
	"time"

	"foodgram/internal/api/handlers"
	"foodgram/internal/api/routes"
	"foodgram/internal/middleware"
	"foodgram/internal/utils"
	"foodgram/internal/utils/storage"
	"foodgram/pkg/catalog"
	"foodgram/pkg/jwt"
	"foodgram/pkg/recipe"
	"foodgram/pkg/shoppinglist"
	"foodgram/pkg/user"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

const defaultLogFile = "./logs/app.log"

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
		JSONEncoder:       json.Marshal,
		JSONDecoder:       json.Unmarshal,
	})
	middlewares := middleware.NewMiddleware()

	// setting up logging and limiter
	logFile := utils.GetConfig("LOG_FILE")
	if logFile == "" {
		logFile = defaultLogFile
	}
	if err := os.MkdirAll(filepath.Dir(logFile), os.ModePerm); err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		logFile,
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Jakarta",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()

	// Repository
	recipeRepository := recipe.NewRecipeRepository(db)
	shoppingListRepository := shoppinglist.NewShoppingListRepository(db)
	catalogRepository := catalog.NewCatalogRepository(db)
	userRepository := user.NewUserRepository(db)

	// Service
	jwtService := jwt.NewJWTService()
	recipeService := recipe.NewRecipeService(recipeRepository, s3)
	shoppingListService := shoppinglist.NewShoppingListService(shoppingListRepository)
	catalogService := catalog.NewCatalogService(catalogRepository)
	userService := user.NewUserService(userRepository, s3)

	// Handler
	recipeHandler := handlers.NewRecipeHandler(recipeService)
	shoppingListHandler := handlers.NewShoppingListHandler(shoppingListService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	userHandler := handlers.NewUserHandler(userService)

	// routes
	routesConfig := routes.Config{
		App:                 app,
		RecipeHandler:       recipeHandler,
		ShoppingListHandler: shoppingListHandler,
		CatalogHandler:      catalogHandler,
		UserHandler:         userHandler,
		Middleware:          middlewares,
		JWTService:          jwtService,
	}
	routesConfig.Setup()
	return app, nil
}
