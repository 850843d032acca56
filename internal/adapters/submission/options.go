package submission

// Option applies a configuration option to the Gatekeeper.
type Option func(*Gatekeeper)

// WithEnv replaces os.Getenv as the source of actor, key and output settings.
func WithEnv(getenv func(string) string) Option {
	return func(g *Gatekeeper) {
		if getenv != nil {
			g.getenv = getenv
		}
	}
}

// WithActorEnv sets the variable holding the submitting identity.
func WithActorEnv(name string) Option {
	return func(g *Gatekeeper) {
		if name != "" {
			g.actorEnv = name
		}
	}
}

// WithKeyEnv sets the variable holding the base64 decryption key.
func WithKeyEnv(name string) Option {
	return func(g *Gatekeeper) {
		if name != "" {
			g.keyEnv = name
		}
	}
}

// WithOutputEnv sets the variable naming the step-outputs file.
func WithOutputEnv(name string) Option {
	return func(g *Gatekeeper) {
		if name != "" {
			g.outputEnv = name
		}
	}
}
