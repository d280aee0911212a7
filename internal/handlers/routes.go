package handlers

// Set bundles every handler served by the API process.
type Set struct {
	Products  *ProductHandler
	Customers *CustomerHandler
	Purchases *PurchaseHandler
	Cashier   *CashierHandler
	Admin     *AdminHandler
	Health    *HealthHandler
}

func RegisterRoutes(r Routes, s Set) {
	RegisterProductRoutes(r, s.Products)
	RegisterCustomerRoutes(r, s.Customers)
	RegisterPurchaseRoutes(r, s.Purchases)
	RegisterCashierRoutes(r, s.Cashier)
	RegisterAdminRoutes(r, s.Admin)
	RegisterHealthRoutes(r, s.Health)
}
