// Package codec encodes request bodies and decodes response bodies by media
// type. JSON is the default for wildcard media types; YAML, form, text and
// octet-stream codecs are registered alongside it.
//
// Registries are immutable. With returns a registry whose extra codecs take
// precedence, which is how per-interface providers add or override codecs.
package codec
