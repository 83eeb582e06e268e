package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type TransferMetrics struct {
	CommitsTotal      *prometheus.CounterVec
	DebtsCreatedTotal prometheus.Counter
}

type PaymentMetrics struct {
	RecordedTotal *prometheus.CounterVec
}

type BlacklistMetrics struct {
	OperationsTotal *prometheus.CounterVec
}

type BatchMetrics struct {
	DebtStatusRefreshedTotal prometheus.Counter
}

var (
	Transfer = TransferMetrics{
		CommitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gemach_ledger_transfer_commits_total",
				Help: "Total number of guarantor transfer commit attempts, by outcome.",
			},
			[]string{"status"},
		),
		DebtsCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gemach_ledger_guarantor_debts_created_total",
				Help: "Total number of guarantor debts created by committed transfers.",
			},
		),
	}

	Payment = PaymentMetrics{
		RecordedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gemach_ledger_payments_recorded_total",
				Help: "Total number of payment recording attempts, by target and outcome.",
			},
			[]string{"target", "status"},
		),
	}

	Blacklist = BlacklistMetrics{
		OperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gemach_ledger_blacklist_operations_total",
				Help: "Total number of blacklist block/unblock operations, by outcome.",
			},
			[]string{"operation", "status"},
		),
	}

	Batch = BatchMetrics{
		DebtStatusRefreshedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gemach_ledger_debt_status_refreshed_total",
				Help: "Total number of guarantor debt rows whose cached status was refreshed.",
			},
		),
	}
)

func RecordTransferCommit(status string) {
	Transfer.CommitsTotal.WithLabelValues(status).Inc()
}

func RecordPayment(target, status string) {
	Payment.RecordedTotal.WithLabelValues(target, status).Inc()
}

func RecordBlacklistOperation(operation, status string) {
	Blacklist.OperationsTotal.WithLabelValues(operation, status).Inc()
}
