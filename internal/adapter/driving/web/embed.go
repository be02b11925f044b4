package web

import "embed"

// StaticFS holds the embedded storefront assets (stylesheet and images).
//
//go:embed static/*
var StaticFS embed.FS
