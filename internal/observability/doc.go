// Package observability records inventory activity as JSON Lines events and
// derives build metrics and health alerts from them on demand.
package observability
