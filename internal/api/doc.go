// Package api is the client for the platform REST API: jig creation, draft
// updates, module creation and publishing. Dry-run mode replaces every call
// with a log line and synthetic zero ids so a full pipeline run can be
// rehearsed without touching the platform.
package api
