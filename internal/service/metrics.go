package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	threadsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forum_threads_created_total",
			Help: "Total number of threads created",
		},
	)

	postsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forum_posts_created_total",
			Help: "Total number of replies created",
		},
	)

	bansCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forum_bans_created_total",
			Help: "Total number of bans issued",
		},
	)

	startingPostConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forum_starting_post_conflicts_total",
			Help: "Writes rejected because the thread already has a starting post",
		},
	)

	mediaDeleteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forum_media_delete_failures_total",
			Help: "Media files that could not be removed after their content was deleted",
		},
	)
)
