package main

import (
	"context"
	"net/http"
	"os"

	"github.com/go-michi/michi"
	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"hockeyshop/controllers"
	"hockeyshop/repository"
	"hockeyshop/store"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Load environment variables; a missing .env file is fine.
	_ = godotenv.Load()

	dbPath := getenv("DB_PATH", "data/hockeyshop.db")
	addr := getenv("ADDR", ":8000")

	st, err := store.Open(dbPath, log)
	if err != nil {
		log.Fatal("open store", zap.Error(err))
	}
	defer st.Close()

	if err := st.Seed(context.Background()); err != nil {
		log.Fatal("seed store", zap.Error(err))
	}

	users := repository.NewUserRepository(st, log)
	categories := repository.NewCategoryRepository(st, log)
	products := repository.NewProductRepository(st, log)
	carts := repository.NewCartRepository(st, log)
	orders := repository.NewOrderRepository(st, log)
	controllers.Init(users, categories, products, carts, orders, log)

	r := michi.NewRouter()
	r.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir("./uploads"))))

	r.Route("/auth", func(sub *michi.Router) {
		sub.HandleFunc("POST register", controllers.Register)
		sub.HandleFunc("POST login", controllers.Login)
		sub.HandleFunc("POST logout", controllers.Logout)
		sub.HandleFunc("GET me", controllers.Me)
		sub.HandleFunc("PUT profile", controllers.UpdateProfile)
		sub.HandleFunc("POST change-password", controllers.ChangePassword)
		sub.HandleFunc("POST forgot-password", controllers.ForgotPassword)
	})

	r.Route("/users", func(sub *michi.Router) {
		sub.HandleFunc("GET list", controllers.GetAllUsers)
		sub.HandleFunc("DELETE delete/{id}", controllers.DeleteUser)
	})

	r.Route("/categories", func(sub *michi.Router) {
		sub.HandleFunc("GET list", controllers.GetAllCategories)
		sub.HandleFunc("GET {id}", controllers.GetCategory)
		sub.HandleFunc("POST add", controllers.CreateCategory)
		sub.HandleFunc("PUT update/{id}", controllers.UpdateCategory)
		sub.HandleFunc("DELETE delete/{id}", controllers.DeleteCategory)
	})

	r.Route("/products", func(sub *michi.Router) {
		sub.HandleFunc("GET list", controllers.GetAllProducts)
		sub.HandleFunc("GET popular", controllers.GetPopularProducts)
		sub.HandleFunc("GET new", controllers.GetNewProducts)
		sub.HandleFunc("GET {id}", controllers.GetProduct)
		sub.HandleFunc("POST add", controllers.CreateProduct)
		sub.HandleFunc("PUT update/{id}", controllers.UpdateProduct)
		sub.HandleFunc("DELETE delete/{id}", controllers.DeleteProduct)
		sub.HandleFunc("POST image/{id}", controllers.UploadProductImage)
		sub.HandleFunc("POST stock/{id}", controllers.AdjustStock)
	})

	r.Route("/cart", func(sub *michi.Router) {
		sub.HandleFunc("GET items", controllers.GetCart)
		sub.HandleFunc("POST set", controllers.SetCartItem)
		sub.HandleFunc("POST increment", controllers.IncrementCartItem)
		sub.HandleFunc("DELETE remove/{productId}", controllers.RemoveCartItem)
		sub.HandleFunc("DELETE clear", controllers.ClearCart)
	})

	r.Route("/orders", func(sub *michi.Router) {
		sub.HandleFunc("POST place", controllers.PlaceOrder)
		sub.HandleFunc("GET mine", controllers.GetMyOrders)
		sub.HandleFunc("GET all", controllers.GetAllOrders)
		sub.HandleFunc("GET {id}", controllers.GetOrder)
		sub.HandleFunc("POST complete/{id}", controllers.CompleteOrder)
	})

	corsOptions := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Info("server running", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handlers.LoggingHandler(os.Stdout, corsOptions(r))); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
