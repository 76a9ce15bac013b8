package entities

// BookVisibility controls whether a catalog record is listed publicly.
type BookVisibility string

const (
	BookVisibilityPublic  BookVisibility = "public"
	BookVisibilityPrivate BookVisibility = "private"
)

// Book is the canonical catalog record. Remote records are heterogeneous
// (price stored as string or number, fields missing entirely); every Book in
// memory has already been through the normalizer, so Price is always >= 0 and
// string fields are plain "" when the source had nothing.
type Book struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Category      string  `json:"category,omitempty"`
	Language      string  `json:"language,omitempty"`
	Description   string  `json:"description,omitempty"`
	Price         float64 `json:"price"`
	CoverImageURL string  `json:"cover_image_url,omitempty"`
	FileURL       string  `json:"file_url,omitempty"`
	Visibility    string  `json:"visibility,omitempty"`
	UploadDate    string  `json:"upload_date,omitempty"` // ISO-8601, fixed width
}

// CartItem is the denormalized snapshot stored under carts/{userId}/{bookId}
// at the time the book was added. At most one item per (user, book); there is
// no quantity, one copy per ebook.
type CartItem struct {
	BookID        string  `json:"book_id"`
	Title         string  `json:"title"`
	Author        string  `json:"author,omitempty"`
	Price         float64 `json:"price"`
	CoverImageURL string  `json:"cover_image_url,omitempty"`
}

// OrderStatus values mirror what the admin reporting screens expect.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is an append-only record of a transaction, used for reporting only.
// Access control is derived from the purchase set, never from orders.
type Order struct {
	OrderID       string      `json:"order_id"`
	UserID        string      `json:"user_id"`
	BookID        string      `json:"book_id"`
	BookTitle     string      `json:"book_title"`
	BookAuthor    string      `json:"book_author,omitempty"`
	BookPrice     float64     `json:"book_price"`
	OrderDate     string      `json:"order_date"` // ISO-8601
	Status        OrderStatus `json:"status"`
	PaymentMethod string      `json:"payment_method,omitempty"`
}
