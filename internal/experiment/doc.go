// Package experiment turns configured injections into chaos strategies and
// runs every outgoing HTTP request through them.
//
// Each request carries chaos.Values describing it (method, url, host, path,
// body and a ULID invocation id) so that "when" conditions can target a
// subset of the traffic.
package experiment
