package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BorrowsRequestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "borrows_requested_total",
		Help: "Total number of borrow requests created",
	})

	BorrowsApprovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "borrows_approved_total",
		Help: "Total number of borrow requests approved",
	})

	BorrowsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "borrows_rejected_total",
		Help: "Total number of borrow requests rejected",
	})

	BorrowsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "borrows_failed_total",
		Help: "Total number of failed borrow lifecycle operations",
	}, []string{"reason"})

	ReturnsRequestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "returns_requested_total",
		Help: "Total number of return requests",
	})

	ReturnsApprovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "returns_approved_total",
		Help: "Total number of returns approved",
	})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logins_total",
		Help: "Total number of login attempts",
	}, []string{"outcome"})
)
