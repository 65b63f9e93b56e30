package kbengine

import "embed"

// EmbeddedAssets contains static assets shipped with the engine: the
// kbengine.css stylesheet used by the default views.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
