// Package ui contains the interaction surface shared by web and mobile
// page objects, and the page and screen objects themselves.
//
// Every wait is a blocking poll on the calling goroutine that ends at the
// surface timeout or when the context is done. Checks that are allowed to
// come up empty return an Observation instead of an error.
package ui
