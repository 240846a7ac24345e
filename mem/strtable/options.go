package strtable

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

type options struct {
	normalize func(string) string
}

// Option configures a Table.
type Option func(*options)

// WithNormalizer transforms every key before it is hashed or stored.
// Normalizers compose in the order they are given.
func WithNormalizer(fn func(string) string) Option {
	return func(o *options) {
		if prev := o.normalize; prev != nil {
			o.normalize = func(s string) string { return fn(prev(s)) }
			return
		}
		o.normalize = fn
	}
}

// FoldCase makes keys case-insensitive using Unicode case folding.
func FoldCase() Option {
	c := cases.Fold()
	return WithNormalizer(c.String)
}

// NFC makes keys insensitive to Unicode composition by storing them in
// Normalization Form C.
func NFC() Option {
	return WithNormalizer(norm.NFC.String)
}
