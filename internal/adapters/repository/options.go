package repository

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithIDGenerator overrides how IDs are assigned to records stored without one.
func WithIDGenerator(gen func() string) Option {
	return func(s *TreapStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}
