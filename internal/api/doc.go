// Package api exposes the subscription service over HTTP: the intake
// endpoints, health probes and the Prometheus scrape endpoint.
package api
