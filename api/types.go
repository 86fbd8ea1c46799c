package api

import "github.com/shopspring/decimal"

// UserCreate is the request body for POST /auth/register.
type UserCreate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the identity payload returned by GET /auth/me.
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ShopCreate is the request body for POST /shop.
type ShopCreate struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// ShopUpdate is the request body for PUT /shop/{id}. Nil fields are omitted
// so the backend keeps their current values.
type ShopUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ShopResponse is a single shop as returned by the backend.
type ShopResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// TitleType distinguishes revenue account titles from expense titles.
type TitleType int

const (
	TitleRevenue TitleType = 1
	TitleExpense TitleType = 2
)

// AccountTitle is one ledger category of a shop.
type AccountTitle struct {
	ID      int64     `json:"id"`
	ShopID  int64     `json:"shop_id"`
	Type    TitleType `json:"type"`
	SubType *int      `json:"sub_type"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Order   int       `json:"order"`
}

// AccountTitles is the response of GET /shop/{id}/account_title.
type AccountTitles struct {
	Revenues []AccountTitle `json:"revenues"`
	Expenses []AccountTitle `json:"expenses"`
}

// EntryCell is one posted amount inside the pivoted entry response. A nil
// amount means no entry exists yet for that title/period combination.
type EntryCell struct {
	ID     *int64           `json:"id,omitempty"`
	Amount *decimal.Decimal `json:"amount"`
}

// AccountEntries is the response of GET /shop/{id}/account_entry?year=YYYY.
// Headers carry the period labels ("2024-01"); Revenues and Expenses are
// parallel grids aligned with the title ordering of AccountTitles.
type AccountEntries struct {
	Headers  []string      `json:"headers"`
	Revenues [][]EntryCell `json:"revenues"`
	Expenses [][]EntryCell `json:"expenses"`
}

// AccountEntriesUpdate is the request body for POST /shop/{id}/account_entry.
type AccountEntriesUpdate struct {
	Revenues [][]EntryCell `json:"revenues"`
	Expenses [][]EntryCell `json:"expenses"`
}
