package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	Market *MarketHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.Market.Register)
	v1.POST("/login", d.Market.Login)
	v1.POST("/logout", d.Market.Logout)
	v1.GET("/me", d.Market.Me)
	v1.PATCH("/me", d.Market.UpdateMe)
	v1.GET("/me/listings", d.Market.MyListings)
	v1.GET("/users", d.Market.Users)
	v1.GET("/categories", d.Market.Categories)
	v1.GET("/search", d.Market.Search)

	products := v1.Group("/products")
	products.GET("", d.Market.GetProducts)
	products.GET("/:id", d.Market.GetProduct)
	products.POST("", d.Market.CreateProduct)
	products.PATCH("/:id", d.Market.PatchProduct)
	products.DELETE("/:id", d.Market.DeleteProduct)

	cart := v1.Group("/cart")
	cart.GET("", d.Market.GetCart)
	cart.POST("", d.Market.AddToCart)
	cart.DELETE("", d.Market.ClearCart)
	cart.DELETE("/:id", d.Market.RemoveFromCart)
	cart.POST("/checkout", d.Market.Checkout)

	v1.GET("/purchases", d.Market.Purchases)
}
