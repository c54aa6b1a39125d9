package admin

import "github.com/000francisca0/Peluchemaniav3/domain/user"

// Section is an area of the back-office.
type Section string

const (
	SectionProducts   Section = "products"
	SectionOrders     Section = "orders"
	SectionCategories Section = "categories"
	SectionUsers      Section = "users"
	SectionReports    Section = "reports"
	SectionActivity   Section = "activity"
)

// sections lists every area in menu order.
var sections = []Section{
	SectionProducts,
	SectionOrders,
	SectionCategories,
	SectionUsers,
	SectionReports,
	SectionActivity,
}

// CanAccess reports whether role may use section. Sellers manage products and
// orders; everything else is for admins.
func CanAccess(role user.Role, section Section) bool {
	switch section {
	case SectionProducts, SectionOrders:
		return role.CanAccessBackOffice()
	default:
		return role.IsAdmin()
	}
}

// SectionsFor returns the areas visible to role.
func SectionsFor(role user.Role) []Section {
	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		if CanAccess(role, s) {
			out = append(out, s)
		}
	}
	return out
}

// Dashboard is the back-office landing summary. Users is zero for sellers.
type Dashboard struct {
	Greeting      string    `json:"greeting"`
	Role          user.Role `json:"role"`
	Sections      []Section `json:"sections"`
	Products      int       `json:"products"`
	CriticalStock int       `json:"critical_stock"`
	Categories    int       `json:"categories"`
	Users         int       `json:"users"`
	Orders        int       `json:"orders"`
	Revenue       float64   `json:"revenue"`
}

// CategoryPayload is the body of category create and update requests.
type CategoryPayload struct {
	Name string `json:"name"`
}
