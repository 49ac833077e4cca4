package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Email         string    `json:"email" db:"email"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	Role          Role      `json:"role" db:"role"`
	PhotoURL      string    `json:"photo_url,omitempty" db:"photo_url"`
	Phone         string    `json:"phone,omitempty" db:"phone"`
	Address       string    `json:"address,omitempty" db:"address"`
	PaymentMethod string    `json:"payment_method,omitempty" db:"payment_method"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Session is the single current_session row. At most one exists; login
// replaces it and logout deletes it.
type Session struct {
	UserID     string    `json:"user_id" db:"user_id"`
	LoggedInAt time.Time `json:"logged_in_at" db:"logged_in_at"`
}

type Category struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	IconURL     string `json:"icon_url,omitempty" db:"icon_url"`
	Description string `json:"description,omitempty" db:"description"`
}

// StringList stores a []string as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

type Product struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Price       float64    `json:"price" db:"price"`
	ImageURL    string     `json:"image_url" db:"image_url"`
	Category    Category   `json:"category"`
	Quantity    int        `json:"quantity" db:"quantity"`
	Rating      float64    `json:"rating" db:"rating"`
	Discount    float64    `json:"discount" db:"discount"`
	ExtraImages StringList `json:"extra_images,omitempty" db:"extra_images"`
	IsPopular   bool       `json:"is_popular" db:"is_popular"`
	IsNew       bool       `json:"is_new" db:"is_new"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// FinalPrice is the unit price after the discount percentage is applied.
func (p Product) FinalPrice() float64 {
	return p.Price * (1 - p.Discount/100)
}

// CartLine is one (user, product) row in the carts table.
type CartLine struct {
	UserID    string    `json:"user_id" db:"user_id"`
	ProductID string    `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	AddedAt   time.Time `json:"added_at" db:"added_at"`
}

// CartItem is a cart line joined with its product.
type CartItem struct {
	Product  Product   `json:"product"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"added_at"`
}

// LineTotal applies the product discount to the line quantity.
func (c CartItem) LineTotal() float64 {
	return c.Product.FinalPrice() * float64(c.Quantity)
}

type OrderStatus string

const (
	OrderActive    OrderStatus = "ACTIVE"
	OrderCompleted OrderStatus = "COMPLETED"
)

type Order struct {
	ID           string      `json:"id" db:"id"`
	UserID       string      `json:"user_id" db:"user_id"`
	UserName     string      `json:"user_name" db:"user_name"`
	UserEmail    string      `json:"user_email" db:"user_email"`
	UserPhone    string      `json:"user_phone" db:"user_phone"`
	UserAddress  string      `json:"user_address" db:"user_address"`
	Items        []OrderItem `json:"items"`
	Subtotal     float64     `json:"subtotal" db:"subtotal"`
	ShippingCost float64     `json:"shipping_cost" db:"shipping_cost"`
	Status       OrderStatus `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
}

// GrandTotal is computed at read time; only subtotal and shipping are stored.
func (o Order) GrandTotal() float64 {
	return o.Subtotal + o.ShippingCost
}

// OrderItem is a frozen line of an order. Product name, image and unit
// price are copied at placement time so the row stays meaningful even
// if the product is later changed or deleted.
type OrderItem struct {
	OrderID      string  `json:"order_id" db:"order_id"`
	ProductID    string  `json:"product_id" db:"product_id"`
	ProductName  string  `json:"product_name" db:"product_name"`
	ProductImage string  `json:"product_image" db:"product_image"`
	Quantity     int     `json:"quantity" db:"quantity"`
	PricePerItem float64 `json:"price_per_item" db:"price_per_item"`
}

func (i OrderItem) LineTotal() float64 {
	return i.PricePerItem * float64(i.Quantity)
}
