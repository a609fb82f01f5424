// Package compiler turns configuration into an ordered sequence of steps.
package compiler

import "errors"

// Compiler runs providers in registration order and concatenates their steps.
type Compiler struct {
	providers []Provider
}

// NewCompiler creates a new Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// RegisterProvider adds a provider to the compiler.
// Providers are called in registration order during compilation.
func (c *Compiler) RegisterProvider(provider Provider) {
	c.providers = append(c.providers, provider)
}

// Providers returns all registered providers.
func (c *Compiler) Providers() []Provider {
	out := make([]Provider, len(c.providers))
	copy(out, c.providers)
	return out
}

// Compile builds the step sequence. It fails if any provider fails or if two
// steps share an ID.
func (c *Compiler) Compile(ctx CompileContext) (*Sequence, error) {
	seq := NewSequence()

	for _, provider := range c.providers {
		steps, err := provider.Compile(ctx)
		if err != nil {
			return nil, NewProviderFailedError(provider.Name(), err)
		}

		for _, step := range steps {
			if err := seq.Add(step); err != nil {
				var ce *CompileError
				if errors.As(err, &ce) {
					ce.Provider = provider.Name()
				}
				return nil, err
			}
		}
	}

	return seq, nil
}
