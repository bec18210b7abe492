// Package catalog reads artifact identity for the maintenance lifecycle.
//
// The artifact registry is owned elsewhere; this package only answers whether
// an artifact exists and what it is called. SQLCatalog reads the local
// artifacts table, and the TOML import helpers seed it for development and
// tests.
package catalog
