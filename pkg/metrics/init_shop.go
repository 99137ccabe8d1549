package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initShopMetrics() {
	r.OrdersCreatedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_orders_created_total",
			Help: "Total number of orders placed by payment method",
		},
		[]string{"payment_method"},
	)

	r.OrderRevenueTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "shop_order_revenue_total",
			Help: "Sum of order totals at checkout",
		},
	)

	r.CartMutationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_cart_mutations_total",
			Help: "Total number of cart changes by operation",
		},
		[]string{"operation"},
	)

	r.UploadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_uploads_total",
			Help: "Total number of image uploads by outcome",
		},
		[]string{"status"},
	)

	r.UploadSizeBytes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shop_upload_size_bytes",
			Help:    "Size of accepted image uploads in bytes",
			Buckets: []float64{10e3, 100e3, 500e3, 1e6, 2.5e6, 5e6},
		},
	)

	r.StoreOperationErrors = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_store_errors_total",
			Help: "Total number of unexpected data store errors by operation",
		},
		[]string{"operation"},
	)
}
