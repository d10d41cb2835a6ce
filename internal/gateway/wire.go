package gateway

import (
	"strings"
	"time"

	catalogdomain "github.com/dwikikusuma/shoping-session/internal/catalog/domain"
	identitydomain "github.com/dwikikusuma/shoping-session/internal/identity/domain"
)

type ProductDTO struct {
	ID          string   `json:"_id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Price       float64  `json:"price" yaml:"price"`
	Category    string   `json:"category" yaml:"category"`
	SubCategory string   `json:"subCategory" yaml:"subCategory"`
	Sizes       []string `json:"sizes" yaml:"sizes"`
	Image       []string `json:"image" yaml:"image"`
	Bestseller  bool     `json:"bestseller" yaml:"bestseller"`
	Date        int64    `json:"date" yaml:"date"`
}

type UserDTO struct {
	ID       string `json:"id,omitempty" yaml:"id"`
	MongoID  string `json:"_id,omitempty" yaml:"-"`
	Name     string `json:"name" yaml:"name"`
	Email    string `json:"email" yaml:"email"`
	JoinDate string `json:"joinDate,omitempty" yaml:"joinDate"`
}

type addItemRequest struct {
	ItemID string `json:"itemId"`
	Size   string `json:"size"`
}

type updateItemRequest struct {
	ItemID   string `json:"itemId"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

func (p ProductDTO) toDomain(currency string) catalogdomain.Product {
	var created time.Time
	if p.Date > 0 {
		created = time.UnixMilli(p.Date).UTC()
	}
	return catalogdomain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       catalogdomain.FromMajor(currency, p.Price),
		Category:    p.Category,
		SubCategory: p.SubCategory,
		Sizes:       p.Sizes,
		Images:      p.Image,
		Bestseller:  p.Bestseller,
		CreatedAt:   created,
	}
}

func (u UserDTO) toDomain() identitydomain.User {
	id := u.ID
	if id == "" {
		id = u.MongoID
	}
	var joined time.Time
	if s := strings.TrimSpace(u.JoinDate); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			joined = t.UTC()
		}
	}
	return identitydomain.User{
		ID:       id,
		Name:     u.Name,
		Email:    u.Email,
		JoinDate: joined,
		Source:   identitydomain.SourceRemote,
	}
}

func UserToDTO(u identitydomain.User) UserDTO {
	dto := UserDTO{ID: u.ID, Name: u.Name, Email: u.Email}
	if !u.JoinDate.IsZero() {
		dto.JoinDate = u.JoinDate.UTC().Format(time.RFC3339)
	}
	return dto
}
