package domain

type RouteKind string

func (k RouteKind) String() string {
	return string(k)
}

const (
	RouteHome            RouteKind = "home"
	RouteCategoryLanding RouteKind = "category"     // /barbati, /femei
	RouteSubcategory     RouteKind = "subcategory"  // /{category}/{subcategory}
	RouteProductType     RouteKind = "product_type" // /{category}/{subcategory}/{product+type}
	RouteProduct         RouteKind = "product"      // /products/{id}
	RouteCart            RouteKind = "cart"
	RouteRegister        RouteKind = "register"
	RouteLogin           RouteKind = "login"
	RouteAccount         RouteKind = "account"
	RouteAdmin           RouteKind = "admin"
)

var RouteKinds = []RouteKind{
	RouteHome,
	RouteCategoryLanding,
	RouteSubcategory,
	RouteProductType,
	RouteProduct,
	RouteCart,
	RouteRegister,
	RouteLogin,
	RouteAccount,
	RouteAdmin,
}

func (k RouteKind) GetTitle() string {
	switch k {
	case RouteHome:
		return "Home"
	case RouteCategoryLanding:
		return "Category"
	case RouteSubcategory:
		return "Subcategory"
	case RouteProductType:
		return "Products"
	case RouteProduct:
		return "Product"
	case RouteCart:
		return "Shopping cart"
	case RouteRegister:
		return "Register"
	case RouteLogin:
		return "Login"
	case RouteAccount:
		return "Account"
	case RouteAdmin:
		return "Admin"
	default:
		return "Unknown"
	}
}

// LandingCategory is a recognised top-level category with its own landing
// page. Only subcategories of these categories get a two-segment path.
type LandingCategory struct {
	ID       string   `mapstructure:"id" json:"id"`
	Path     string   `mapstructure:"path" json:"path"`         // e.g. /barbati
	Featured []string `mapstructure:"featured" json:"featured"` // Product types highlighted on the landing page
}
