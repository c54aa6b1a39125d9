package admin

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/000francisca0/Peluchemaniav3/domain/order"
	"github.com/000francisca0/Peluchemaniav3/domain/product"
	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/000francisca0/Peluchemaniav3/events"
	"github.com/000francisca0/Peluchemaniav3/modules/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend keeps products, categories and users in memory.
type fakeBackend struct {
	mu         sync.Mutex
	products   []product.Product
	categories []product.Category
	users      []user.User
	orders     []order.Order
	details    map[int64][]order.Detail
	nextID     int64
	tokens     []string

	DeleteProductFn func(id int64) error
	OrdersFn        func() ([]order.Order, error)
}

func newFakeBackend() *fakeBackend {
	osos := product.Category{ID: 1, Name: "Osos"}
	return &fakeBackend{
		products: []product.Product{
			{ID: 1, Name: "Oso Panda", Price: 10000, Stock: 3, Category: &osos, OnSale: true, DiscountPercentage: 0.2},
			{ID: 2, Name: "Conejo", Price: 5000, Stock: 12, Category: &osos},
		},
		categories: []product.Category{osos, {ID: 2, Name: "Gatos"}},
		users: []user.User{
			{ID: 1, Name: "Admin", Email: "admin@duoc.cl", Role: user.RoleAdmin},
			{ID: 2, Name: "Ana", Email: "ana@gmail.com", Role: user.RoleCliente},
		},
		orders: []order.Order{
			{ID: 7, CustomerEmail: "ana@gmail.com", Total: 13000},
			{ID: 9, CustomerEmail: "ana@gmail.com", Total: 8000},
			{ID: 8, CustomerEmail: "luis@gmail.com", Total: 5000},
		},
		details: map[int64][]order.Detail{},
		nextID:  100,
	}
}

func (f *fakeBackend) token(tok string) {
	f.mu.Lock()
	f.tokens = append(f.tokens, tok)
	f.mu.Unlock()
}

func (f *fakeBackend) Products(context.Context) ([]product.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]product.Product(nil), f.products...), nil
}

func (f *fakeBackend) LowStockProducts(_ context.Context, tok string) ([]product.Product, error) {
	f.token(tok)
	return []product.Product{f.products[0]}, nil
}

func (f *fakeBackend) CreateProduct(_ context.Context, tok string, req product.CreateProductRequest) (product.Product, error) {
	f.token(tok)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p := product.Product{ID: f.nextID, Name: req.Name, Price: req.Price, Stock: req.Stock, ImageURL: req.ImageURL}
	f.products = append(f.products, p)
	return p, nil
}

func (f *fakeBackend) UpdateProduct(_ context.Context, tok string, id int64, req product.UpdateProductRequest) (product.Product, error) {
	f.token(tok)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].Name = req.Name
			f.products[i].Price = req.Price
			return f.products[i], nil
		}
	}
	return product.Product{}, &backend.APIError{Status: 404}
}

func (f *fakeBackend) DeleteProduct(_ context.Context, tok string, id int64) error {
	f.token(tok)
	if f.DeleteProductFn != nil {
		return f.DeleteProductFn(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return &backend.APIError{Status: 404}
}

func (f *fakeBackend) Categories(context.Context) ([]product.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]product.Category(nil), f.categories...), nil
}

func (f *fakeBackend) CreateCategory(_ context.Context, tok, name string) (product.Category, error) {
	f.token(tok)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c := product.Category{ID: f.nextID, Name: name}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeBackend) UpdateCategory(_ context.Context, tok string, id int64, name string) (product.Category, error) {
	f.token(tok)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.categories {
		if f.categories[i].ID == id {
			f.categories[i].Name = name
			return f.categories[i], nil
		}
	}
	return product.Category{}, &backend.APIError{Status: 404}
}

func (f *fakeBackend) DeleteCategory(_ context.Context, tok string, id int64) error {
	f.token(tok)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.categories {
		if f.categories[i].ID == id {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			return nil
		}
	}
	return &backend.APIError{Status: 404}
}

func (f *fakeBackend) Users(_ context.Context, tok string) ([]user.User, error) {
	f.token(tok)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]user.User(nil), f.users...), nil
}

func (f *fakeBackend) CreateUser(_ context.Context, tok string, req user.SaveUserRequest) (user.User, error) {
	f.token(tok)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u := user.User{ID: f.nextID, Name: req.Name, Email: req.Email, Role: req.Role}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeBackend) UpdateUser(_ context.Context, tok string, id int64, req user.SaveUserRequest) (user.User, error) {
	f.token(tok)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].Name = req.Name
			f.users[i].Role = req.Role
			return f.users[i], nil
		}
	}
	return user.User{}, &backend.APIError{Status: 404}
}

func (f *fakeBackend) DeleteUser(_ context.Context, tok string, id int64) error {
	f.token(tok)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if f.users[i].ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return &backend.APIError{Status: 404}
}

func (f *fakeBackend) UserOrders(_ context.Context, tok string, userID int64) ([]order.Order, error) {
	f.token(tok)
	var out []order.Order
	for _, o := range f.orders {
		if userID == 2 && o.CustomerEmail == "ana@gmail.com" {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeBackend) Orders(_ context.Context, tok string) ([]order.Order, error) {
	f.token(tok)
	if f.OrdersFn != nil {
		return f.OrdersFn()
	}
	return append([]order.Order(nil), f.orders...), nil
}

func (f *fakeBackend) OrderDetails(_ context.Context, tok string, orderID int64) ([]order.Detail, error) {
	f.token(tok)
	return f.details[orderID], nil
}

// recordingNotifier collects catalog events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []events.CatalogChangedEvent
}

func (n *recordingNotifier) CatalogChanged(_ context.Context, ev events.CatalogChangedEvent) {
	n.mu.Lock()
	n.events = append(n.events, ev)
	n.mu.Unlock()
}

func adminSession() user.Session {
	return user.Session{
		ID:           "s-admin",
		BackendToken: "admin-token",
		User:         user.User{ID: 1, Name: "Admin", Email: "admin@duoc.cl", Role: user.RoleAdmin},
	}
}

func sellerSession() user.Session {
	return user.Session{
		ID:           "s-seller",
		BackendToken: "seller-token",
		User:         user.User{ID: 5, Name: "Vera", Email: "vera@duoc.cl", Role: user.RoleVendedor},
	}
}

func newTestService() (*Service, *fakeBackend, *recordingNotifier) {
	be := newFakeBackend()
	n := &recordingNotifier{}
	return NewService(be, n), be, n
}

func TestService_ProductsFlagsCriticalStock(t *testing.T) {
	svc, _, _ := newTestService()

	all, err := svc.Products(context.Background(), ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].CriticalStock)
	assert.Equal(t, int64(8000), all[0].FinalPrice)
	assert.False(t, all[1].CriticalStock)

	critical, err := svc.Products(context.Background(), ProductFilter{CriticalOnly: true})
	require.NoError(t, err)
	require.Len(t, critical, 1)
	assert.Equal(t, int64(1), critical[0].ID)
}

func TestService_CreateProduct(t *testing.T) {
	svc, be, n := newTestService()

	list, err := svc.CreateProduct(context.Background(), adminSession(), product.CreateProductRequest{
		Name:       "  Gato Siamés ",
		Price:      7990,
		Stock:      -2,
		CategoryID: 2,
	})
	require.NoError(t, err)
	require.Len(t, list, 3, "mutation returns the refreshed list")

	created := list[2]
	assert.Equal(t, "Gato Siamés", created.Name)
	assert.Equal(t, DefaultImageURL, created.ImageURL)
	assert.Equal(t, 0, created.Stock)
	assert.Contains(t, be.tokens, "admin-token")

	require.Len(t, n.events, 1)
	assert.Equal(t, events.ResourceProduct, n.events[0].Resource)
	assert.Equal(t, "created", n.events[0].Action)
	assert.Equal(t, "admin@duoc.cl", n.events[0].ChangedBy)
}

func TestService_ProductValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     product.CreateProductRequest
		message string
	}{
		{name: "missing name", req: product.CreateProductRequest{Price: 1000, CategoryID: 1}, message: MsgProductRequired},
		{name: "missing price", req: product.CreateProductRequest{Name: "Oso", CategoryID: 1}, message: MsgProductRequired},
		{name: "missing category", req: product.CreateProductRequest{Name: "Oso", Price: 1000}, message: MsgProductRequired},
		{name: "discount over one", req: product.CreateProductRequest{Name: "Oso", Price: 1000, CategoryID: 1, DiscountPercentage: 20}, message: MsgDiscountRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, be, n := newTestService()

			_, err := svc.CreateProduct(context.Background(), adminSession(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.message, vErr.Message)
			assert.Empty(t, be.tokens, "backend must not be called")
			assert.Empty(t, n.events)
		})
	}
}

func TestService_DeleteProduct(t *testing.T) {
	t.Run("requires confirmation", func(t *testing.T) {
		svc, be, _ := newTestService()
		_, err := svc.DeleteProduct(context.Background(), adminSession(), 2, false)
		assert.ErrorIs(t, err, ErrConfirmationRequired)
		assert.Empty(t, be.tokens)
	})

	t.Run("confirmed", func(t *testing.T) {
		svc, _, n := newTestService()
		list, err := svc.DeleteProduct(context.Background(), adminSession(), 2, true)
		require.NoError(t, err)
		assert.Len(t, list, 1)
		require.Len(t, n.events, 1)
		assert.Equal(t, "deleted", n.events[0].Action)
	})

	t.Run("product with sales", func(t *testing.T) {
		svc, be, n := newTestService()
		be.DeleteProductFn = func(int64) error {
			return &backend.APIError{Status: 409, Message: "No se puede eliminar: El producto tiene ventas asociadas."}
		}

		_, err := svc.DeleteProduct(context.Background(), adminSession(), 1, true)
		require.Error(t, err)
		assert.ErrorIs(t, err, backend.ErrConflict)
		assert.Equal(t, "No se puede eliminar: El producto tiene ventas asociadas.", backend.Message(err))
		assert.Empty(t, n.events)
	})
}

func TestService_Categories(t *testing.T) {
	svc, _, n := newTestService()
	actor := adminSession()

	list, err := svc.CreateCategory(context.Background(), actor, "Perros")
	require.NoError(t, err)
	assert.Len(t, list, 3)

	list, err = svc.UpdateCategory(context.Background(), actor, 2, "Gatitos")
	require.NoError(t, err)
	assert.Equal(t, "Gatitos", list[1].Name)

	_, err = svc.CreateCategory(context.Background(), actor, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.DeleteCategory(context.Background(), actor, 2, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	list, err = svc.DeleteCategory(context.Background(), actor, 2, true)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.Len(t, n.events, 3)
	for _, ev := range n.events {
		assert.Equal(t, events.ResourceCategory, ev.Resource)
	}
}

func TestService_Users(t *testing.T) {
	svc, _, _ := newTestService()
	actor := adminSession()

	_, err := svc.CreateUser(context.Background(), actor, user.SaveUserRequest{Name: "Luis", Email: "luis@gmail.com"})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, MsgUserRequired, vErr.Message)

	list, err := svc.CreateUser(context.Background(), actor, user.SaveUserRequest{Name: "Luis", Email: "luis@gmail.com", Password: "1234"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, user.RoleCliente, list[2].Role)

	// Updates may leave the password empty.
	list, err = svc.UpdateUser(context.Background(), actor, 2, user.SaveUserRequest{Name: "Ana María", Email: "ana@gmail.com", Role: user.RoleVendedor})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", list[1].Name)
	assert.Equal(t, user.RoleVendedor, list[1].Role)
}

func TestService_DeleteUser(t *testing.T) {
	t.Run("own account by id", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.DeleteUser(context.Background(), adminSession(), 1, true)
		assert.ErrorIs(t, err, ErrSelfDelete)
	})

	t.Run("own account by email", func(t *testing.T) {
		svc, _, _ := newTestService()
		actor := adminSession()
		actor.User.ID = 0
		_, err := svc.DeleteUser(context.Background(), actor, 1, true)
		assert.ErrorIs(t, err, ErrSelfDelete)
	})

	t.Run("unknown account", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.DeleteUser(context.Background(), adminSession(), 42, true)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("requires confirmation", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.DeleteUser(context.Background(), adminSession(), 2, false)
		assert.ErrorIs(t, err, ErrConfirmationRequired)
	})

	t.Run("confirmed", func(t *testing.T) {
		svc, _, _ := newTestService()
		list, err := svc.DeleteUser(context.Background(), adminSession(), 2, true)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestService_OrdersNewestFirst(t *testing.T) {
	svc, _, _ := newTestService()

	orders, err := svc.Orders(context.Background(), sellerSession())
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []int64{9, 8, 7}, []int64{orders[0].ID, orders[1].ID, orders[2].ID})

	mine, err := svc.UserOrders(context.Background(), adminSession(), 2)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, int64(9), mine[0].ID)

	details, err := svc.OrderDetails(context.Background(), adminSession(), 7)
	require.NoError(t, err)
	assert.NotNil(t, details)
	assert.Empty(t, details)
}

func TestService_Dashboard(t *testing.T) {
	svc, _, _ := newTestService()

	d, err := svc.Dashboard(context.Background(), adminSession())
	require.NoError(t, err)
	assert.Equal(t, 2, d.Products)
	assert.Equal(t, 1, d.CriticalStock)
	assert.Equal(t, 2, d.Categories)
	assert.Equal(t, 2, d.Users)
	assert.Equal(t, 3, d.Orders)
	assert.Equal(t, 26000.0, d.Revenue)
	assert.Equal(t, SectionsFor(user.RoleAdmin), d.Sections)

	seller, err := svc.Dashboard(context.Background(), sellerSession())
	require.NoError(t, err)
	assert.Zero(t, seller.Users)
	assert.Equal(t, []Section{SectionProducts, SectionOrders}, seller.Sections)
}

func TestService_DashboardBackendError(t *testing.T) {
	svc, be, _ := newTestService()
	be.OrdersFn = func() ([]order.Order, error) {
		return nil, backend.ErrUnavailable
	}

	_, err := svc.Dashboard(context.Background(), adminSession())
	assert.ErrorIs(t, err, backend.ErrUnavailable)
}

func TestCanAccess(t *testing.T) {
	tests := []struct {
		role    user.Role
		section Section
		want    bool
	}{
		{user.RoleAdmin, SectionUsers, true},
		{user.RoleAdmin, SectionReports, true},
		{user.RoleVendedor, SectionProducts, true},
		{user.RoleVendedor, SectionOrders, true},
		{user.RoleVendedor, SectionCategories, false},
		{user.RoleVendedor, SectionReports, false},
		{user.RoleCliente, SectionProducts, false},
		{user.RoleCliente, SectionOrders, false},
	}

	for _, tt := range tests {
		if got := CanAccess(tt.role, tt.section); got != tt.want {
			t.Errorf("CanAccess(%s, %s) = %v, want %v", tt.role, tt.section, got, tt.want)
		}
	}
}
