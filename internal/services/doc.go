// Package services carries request-scoped identifiers through context so
// lifecycle operations, reconcile cycles, and API handlers can tag their log
// lines consistently.
//
// The helpers stamp task IDs, viewer names (curator or cleaner), reconcile
// cycle IDs, and correlation identifiers. The logging package reads them back
// via logging.WithContext.
package services
