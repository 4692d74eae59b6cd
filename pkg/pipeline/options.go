package pipeline

import (
	"github.com/rs/zerolog"

	"github.com/askiada/go-carry/pkg/pipeline/model"
)

type Option func(p *Pipeline)

// WithContext sets the value every step can read through Transport.Context.
func WithContext(context any) Option {
	return func(p *Pipeline) {
		p.context = context
	}
}

// WithCaster selects a built-in caster.
func WithCaster(kind CasterKind) Option {
	return func(p *Pipeline) {
		p.casterKind = kind
	}
}

// WithCasterFunc sets a custom caster.
func WithCasterFunc(caster Caster) Option {
	return func(p *Pipeline) {
		p.customCaster = caster
	}
}

// WithCastFirst applies the caster to the initial value too.
func WithCastFirst() Option {
	return func(p *Pipeline) {
		p.castFirst = true
	}
}

func WithName(name string) Option {
	return func(p *Pipeline) {
		p.name = name
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithHooks registers pipeline options such as measures and drawers.
func WithHooks(hooks ...model.PipelineOption) Option {
	return func(p *Pipeline) {
		p.hooks = append(p.hooks, hooks...)
	}
}

type applyConfig struct {
	transport *Transport
	cursor    any
}

type ApplyOption func(c *applyConfig)

// WithTransport runs the pipeline with an existing transport.
// The transport must have been created for the same initial value.
func WithTransport(t *Transport) ApplyOption {
	return func(c *applyConfig) {
		c.transport = t
	}
}

// WithCursor starts the run from cursor instead of the initial value. A nil cursor is ignored.
func WithCursor(cursor any) ApplyOption {
	return func(c *applyConfig) {
		c.cursor = cursor
	}
}
