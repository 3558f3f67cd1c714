// Package redistore implements the credential store on Redis with
// JSON-encoded records and a username index. It suits deployments that
// already run Redis and do not need relational storage.
package redistore
