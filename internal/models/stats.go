package models

// CustomerStats — агрегаты по заказам самого пользователя.
type CustomerStats struct {
	TotalOrders     int     `json:"total_orders"`
	PendingOrders   int     `json:"pending_orders"`
	PaidOrders      int     `json:"paid_orders"`
	FulfilledOrders int     `json:"fulfilled_orders"`
	TotalSpent      float64 `json:"total_spent"`
}

// AdminDashboardStats — сводка по всей системе для администратора кухни.
type AdminDashboardStats struct {
	TotalOrdersToday  int     `json:"total_orders_today"`
	TotalRevenueToday float64 `json:"total_revenue_today"`
	PendingPayments   int     `json:"pending_payments"`
	ActiveMeals       int     `json:"active_meals"`
	TotalCustomers    int     `json:"total_customers"`
}
