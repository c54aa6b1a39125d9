package backend

import (
	"encoding/json"
	"log"

	"github.com/000francisca0/Peluchemaniav3/domain/order"
	"github.com/000francisca0/Peluchemaniav3/domain/product"
	"github.com/000francisca0/Peluchemaniav3/domain/user"
)

// The shop backend speaks Spanish field names. These types mirror its JSON
// and are converted to domain entities at the edge of this package.

type categoryDTO struct {
	ID     int64  `json:"id,omitempty"`
	Nombre string `json:"nombre,omitempty"`
}

type productDTO struct {
	ID                 int64        `json:"id,omitempty"`
	Nombre             string       `json:"nombre"`
	Descripcion        string       `json:"descripcion"`
	Precio             float64      `json:"precio"`
	Stock              int          `json:"stock"`
	OnSale             bool         `json:"onSale"`
	DiscountPercentage float64      `json:"discountPercentage"`
	Categoria          *categoryDTO `json:"categoria,omitempty"`
	URLImagen          string       `json:"urlImagen"`
}

type userDTO struct {
	ID              int64  `json:"id,omitempty"`
	Nombre          string `json:"nombre"`
	Email           string `json:"email"`
	Password        string `json:"password,omitempty"`
	Rol             string `json:"rol"`
	DireccionRegion string `json:"direccionRegion"`
	DireccionComuna string `json:"direccionComuna"`
	DireccionCalle  string `json:"direccionCalle"`
	DireccionDepto  string `json:"direccionDepto"`
}

type orderDTO struct {
	ID           int64           `json:"id"`
	UsuarioEmail string          `json:"usuarioEmail"`
	Fecha        order.Timestamp `json:"fecha"`
	Total        float64         `json:"total"`
	Direccion    string          `json:"direccion"`
}

type detailDTO struct {
	Cantidad       int         `json:"cantidad"`
	PrecioUnitario float64     `json:"precioUnitario"`
	Producto       *productDTO `json:"producto"`
}

type addressDTO struct {
	Calle  string `json:"calle"`
	Depto  string `json:"depto"`
	Region string `json:"region"`
	Comuna string `json:"comuna"`
}

type purchaseItemDTO struct {
	ID       int64  `json:"id"`
	Nombre   string `json:"nombre"`
	Precio   int64  `json:"precio"`
	Quantity int    `json:"quantity"`
	Imagen   string `json:"imagen,omitempty"`
}

type purchaseDTO struct {
	UserID          string            `json:"userId"`
	CartItems       []purchaseItemDTO `json:"cartItems"`
	ShippingAddress addressDTO        `json:"shippingAddress"`
	Total           int64             `json:"total"`
	IdempotencyKey  string            `json:"idempotencyKey"`
}

type purchaseResponseDTO struct {
	Message  string      `json:"message"`
	BoletaID json.Number `json:"boletaId"`
}

type loginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponseDTO struct {
	Token   string   `json:"token"`
	Usuario *userDTO `json:"usuario"`
}

func (d categoryDTO) toDomain() product.Category {
	return product.Category{ID: d.ID, Name: d.Nombre}
}

func (d productDTO) toDomain() product.Product {
	p := product.Product{
		ID:                 d.ID,
		Name:               d.Nombre,
		Description:        d.Descripcion,
		Price:              d.Precio,
		Stock:              d.Stock,
		ImageURL:           d.URLImagen,
		OnSale:             d.OnSale,
		DiscountPercentage: d.DiscountPercentage,
	}
	if d.Categoria != nil {
		c := d.Categoria.toDomain()
		p.Category = &c
	}
	return p
}

func productFromRequest(req product.CreateProductRequest) productDTO {
	d := productDTO{
		Nombre:             req.Name,
		Descripcion:        req.Description,
		Precio:             req.Price,
		Stock:              req.Stock,
		OnSale:             req.OnSale,
		DiscountPercentage: req.DiscountPercentage,
		URLImagen:          req.ImageURL,
	}
	if req.CategoryID != 0 {
		d.Categoria = &categoryDTO{ID: req.CategoryID}
	}
	return d
}

func (d userDTO) toDomain() user.User {
	role, err := user.ParseRole(d.Rol)
	if err != nil {
		log.Printf("[backend] Warning: user %d has unknown role %q, treating as %s", d.ID, d.Rol, user.RoleCliente)
		role = user.RoleCliente
	}
	return user.User{
		ID:    d.ID,
		Name:  d.Nombre,
		Email: d.Email,
		Role:  role,
		DefaultAddress: user.Address{
			Region: d.DireccionRegion,
			Comuna: d.DireccionComuna,
			Street: d.DireccionCalle,
			Unit:   d.DireccionDepto,
		},
	}
}

func userFromRequest(req user.SaveUserRequest) userDTO {
	return userDTO{
		Nombre:          req.Name,
		Email:           req.Email,
		Password:        req.Password,
		Rol:             req.Role.String(),
		DireccionRegion: req.Address.Region,
		DireccionComuna: req.Address.Comuna,
		DireccionCalle:  req.Address.Street,
		DireccionDepto:  req.Address.Unit,
	}
}

func (d orderDTO) toDomain() order.Order {
	return order.Order{
		ID:              d.ID,
		PlacedAt:        d.Fecha,
		CustomerEmail:   d.UsuarioEmail,
		ShippingAddress: d.Direccion,
		Total:           d.Total,
	}
}

func (d detailDTO) toDomain() order.Detail {
	det := order.Detail{
		Quantity:  d.Cantidad,
		UnitPrice: d.PrecioUnitario,
	}
	if d.Producto != nil {
		p := d.Producto.toDomain()
		det.Product = &p
	}
	return det
}

func mapSlice[D any, T any](in []D, fn func(D) T) []T {
	out := make([]T, len(in))
	for i, d := range in {
		out[i] = fn(d)
	}
	return out
}
