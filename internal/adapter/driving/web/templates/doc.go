// Package templates holds the storefront's templ components.
package templates

//go:generate go tool templ generate
