// Package pgstore implements the credential store on PostgreSQL via pgx
// connection pools. It is the intended production store.
package pgstore
