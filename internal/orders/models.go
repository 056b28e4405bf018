package orders

import "time"

// PaymentMethod values are part of the stored JSON contract.
const (
	PaymentPaystack     = "Paystack"
	PaymentBankTransfer = "BankTransfer"
)

// Item is a point-in-time snapshot of the product at order time. Later
// product edits never change it.
type Item struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// ShippingDetails is a free-form snapshot captured at order time.
type ShippingDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

type Order struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId,omitempty"`
	Items            []Item          `json:"items"`
	TotalAmount      int64           `json:"totalAmount"`
	ShippingFee      int64           `json:"shippingFee"`
	Status           Status          `json:"status"`
	PaymentMethod    string          `json:"paymentMethod"`
	PaymentReference string          `json:"paymentReference,omitempty"`
	ReceiptURL       string          `json:"receiptUrl,omitempty"`
	ShippingDetails  ShippingDetails `json:"shippingDetails"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type Variant struct {
	Size  string `json:"size"`
	Color string `json:"color"`
	Stock int    `json:"stock"`
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Variants    []Variant `json:"variants,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Review goes public only after an admin flips IsApproved.
type Review struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	Name       string    `json:"name"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	IsApproved bool      `json:"isApproved"`
	CreatedAt  time.Time `json:"createdAt"`
}
