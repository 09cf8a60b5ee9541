// Package catalog defines notification types, their preference categories
// and default delivery channels.
//
// The built-in catalog is embedded from catalog.yaml; NOTIFY_CATALOG_PATH
// replaces it with a file of the same shape. Types missing from the catalog
// still resolve: the category is guessed from the key prefix and only the
// in-app channel is enabled by default.
package catalog
