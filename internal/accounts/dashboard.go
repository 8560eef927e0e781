package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	pkgerrors "github.com/dulcemocka/ordering-backend/pkg/errors"
)

// StatusCount is one slice of the orders-by-status breakdown.
type StatusCount struct {
	StatusID uuid.UUID `json:"status_id"`
	Name     string    `json:"name"`
	Count    int64     `json:"count"`
}

// DailySales is one day of order revenue.
type DailySales struct {
	Day   time.Time `json:"day"`
	Total int64     `json:"total"`
}

// ProductSales ranks a product by units sold. Keyed on the name snapshot so
// deleted products still count.
type ProductSales struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// DashboardStats aggregates the back-office landing page numbers.
type DashboardStats struct {
	Customers      int64          `json:"customers"`
	Orders         int64          `json:"orders"`
	Revenue        int64          `json:"revenue"`
	OrdersByStatus []StatusCount  `json:"orders_by_status"`
	RecentOrders   []models.Order `json:"recent_orders"`
	DailySales     []DailySales   `json:"daily_sales"`
	TopProducts    []ProductSales `json:"top_products"`
}

const (
	dashboardRecentOrders = 5
	dashboardTopProducts  = 5
	dashboardSalesDays    = 7
)

// Dashboard assembles the back-office overview. Revenue counts delivered
// orders only; daily sales cover the last seven days including today.
func (s *service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	var err error
	if stats.Customers, err = s.repo.CountCustomers(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count customers")
	}
	if stats.Orders, err = s.repo.CountOrders(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	if stats.Revenue, err = s.repo.SumDeliveredRevenue(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
	}
	if stats.OrdersByStatus, err = s.repo.OrdersByStatus(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "orders by status")
	}
	if stats.RecentOrders, err = s.repo.RecentOrders(ctx, dashboardRecentOrders); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recent orders")
	}
	since := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -(dashboardSalesDays - 1))
	if stats.DailySales, err = s.repo.DailySales(ctx, since); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "daily sales")
	}
	if stats.TopProducts, err = s.repo.TopProducts(ctx, dashboardTopProducts); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "top products")
	}
	return stats, nil
}
