package render

type options struct {
	title  string
	styled bool
}

// Option configures rendering.
type Option func(*options)

// WithTitle sets the page heading.
func WithTitle(title string) Option {
	return func(o *options) {
		if title != "" {
			o.title = title
		}
	}
}

// WithStyle enables colors in terminal output.
func WithStyle(styled bool) Option {
	return func(o *options) {
		o.styled = styled
	}
}
