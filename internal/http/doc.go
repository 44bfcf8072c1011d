// Package http exposes the event planner over JSON.
//
// The router serves the following endpoints:
//   - GET /health: liveness probe, never behind basic auth.
//   - GET /events?state=&type=&q=&sort=&order=: the filtered and sorted catalog.
//     Each event carries `selected` and, when it overlaps a selected event,
//     `conflictsWith`.
//   - GET /selection?mode=all|optimal: the derived selection view. The mode
//     parameter overrides the stored view mode for this response only.
//   - DELETE /selection: clears every selected event.
//   - POST /selection/{id}, DELETE /selection/{id}: add or remove one event.
//   - POST /selection/{id}/toggle: flips the selection of one event.
//   - POST /selection/resolve: keeps only the optimal plan.
//   - PUT /selection/view-mode: body {"mode":"all|optimal"}.
//   - GET /itinerary?format=text|ics&title=&mode=: downloads the displayed list.
//
// Selection mutations respond with the updated view so clients never need a
// second round trip.
package http
