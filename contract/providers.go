package contract

import (
	"fmt"

	"github.com/kbukum/restproxy/codec"
	"github.com/kbukum/restproxy/converter"
	"github.com/kbukum/restproxy/mapper"
)

// Providers are the registries a bound interface uses at call time.
type Providers struct {
	Mappers    *mapper.Registry
	Converters *converter.Registry
	Codecs     *codec.Registry
}

// normalize fills nil registries with empty or default ones.
func (p Providers) normalize() Providers {
	if p.Mappers == nil {
		p.Mappers = mapper.NewRegistry()
	}
	if p.Converters == nil {
		p.Converters = converter.NewRegistry()
	}
	if p.Codecs == nil {
		p.Codecs = codec.Default()
	}
	return p
}

type ownProviders struct {
	mappers    []mapper.Mapper
	converters []converter.Provider
	codecs     []codec.Codec
}

func (o ownProviders) empty() bool {
	return len(o.mappers) == 0 && len(o.converters) == 0 && len(o.codecs) == 0
}

// With returns p extended with the given provider values. A value is added
// to every registry whose interface it implements; a value implementing
// none is an error.
func (p Providers) With(values ...any) (Providers, error) {
	own, err := classify(values)
	if err != nil {
		return p, err
	}
	return p.merge(own), nil
}

func (p Providers) merge(own ownProviders) Providers {
	p = p.normalize()
	if own.empty() {
		return p
	}
	return Providers{
		Mappers:    p.Mappers.With(own.mappers...),
		Converters: p.Converters.With(own.converters...),
		Codecs:     p.Codecs.With(own.codecs...),
	}
}

func classify(values []any) (ownProviders, error) {
	var own ownProviders
	for _, v := range values {
		matched := false
		if m, ok := v.(mapper.Mapper); ok {
			own.mappers = append(own.mappers, m)
			matched = true
		}
		if c, ok := v.(converter.Provider); ok {
			own.converters = append(own.converters, c)
			matched = true
		}
		if c, ok := v.(codec.Codec); ok {
			own.codecs = append(own.codecs, c)
			matched = true
		}
		if !matched {
			return own, fmt.Errorf("unsupported provider %T", v)
		}
	}
	return own, nil
}
