package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

var (
	relationshipMetricsOnce sync.Once

	friendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_requests_total",
			Help: "Total number of friend request attempts",
		},
		[]string{"status"},
	)

	friendAcceptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_accepts_total",
			Help: "Total number of auto-accepted friend requests",
		},
		[]string{"status"},
	)

	friendDeclinesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_declines_total",
			Help: "Total number of friend request decline attempts",
		},
		[]string{"status"},
	)

	unfriendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unfriends_total",
			Help: "Total number of unfriend/cancel attempts",
		},
		[]string{"status"},
	)
)

func RegisterRelationshipMetrics() {
	relationshipMetricsOnce.Do(func() {
		prometheus.MustRegister(friendRequestsTotal, friendAcceptsTotal, friendDeclinesTotal, unfriendsTotal)
	})
}

func IncFriendRequest(status string) {
	RegisterRelationshipMetrics()
	friendRequestsTotal.WithLabelValues(status).Inc()
}

func IncFriendAccept(status string) {
	RegisterRelationshipMetrics()
	friendAcceptsTotal.WithLabelValues(status).Inc()
}

func IncFriendDecline(status string) {
	RegisterRelationshipMetrics()
	friendDeclinesTotal.WithLabelValues(status).Inc()
}

func IncUnfriend(status string) {
	RegisterRelationshipMetrics()
	unfriendsTotal.WithLabelValues(status).Inc()
}
