/*
Package monitoring provides metrics collection for glassd.

# Overview

Metrics live in a private Prometheus registry per Metrics value. Tests and
embedded servers can therefore build as many collectors as they need.

# Tracked

- HTTP request counts and latency by route template
- Notification admissions by category and rejections by reason
- Buffer occupancy and expiry purges
- Launcher menu actions
- Route lookups by source (service or synthetic)
- Display stream connections and messages

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	planner := route.NewPlanner(route.Options{OnLookup: metrics.RecordRouteLookup})
*/
package monitoring
