// Package handlers contains the HTTP entry points of the service:
// filter search, tag aggregation, placeholder expansion, tags CRUD,
// thumbnails, and the health/version/stats operational surface.
package handlers
