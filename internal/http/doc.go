// Package http exposes the attendance API over net/http.
//
// The router serves the following endpoints:
//   - GET /attendance?week=YYYY-MM-DD: the roster joined with the week's submissions. Response:
//     {"week","display","attendance":[{"userId","userName","summary","attendance"}]} where
//     attendance is the stored record or null for users who have not submitted.
//   - POST /submit-attendance: body {"userId","userName","password","week","days":{...}}. Response:
//     {"success","allSubmitted","message"}.
//   - GET /weekly-reminder: sends the next week's reminder. Guarded by a bearer secret when one is
//     configured. Response: {"success","week","message","submittedCount","pendingCount"}.
//   - GET /users: the roster as [{"id","name"}].
//   - GET /weeks: {"current","currentDisplay","next","nextDisplay"}.
//
// Failures are rendered as {"error","error_kind","errors"} with the status chosen from the error
// kind. DTOs live alongside their handlers.
package http
