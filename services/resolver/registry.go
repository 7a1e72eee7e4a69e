package resolver

// Registry maps platforms to their declared resolver chains. Constructed and
// wired by the caller, not a process-wide singleton.
type Registry struct {
	chains map[Platform]*Chain
}

func NewRegistry() *Registry {
	return &Registry{chains: map[Platform]*Chain{}}
}

func (r *Registry) Register(platform Platform, chain *Chain) {
	r.chains[platform] = chain
}

func (r *Registry) ChainFor(platform Platform) (*Chain, bool) {
	chain, ok := r.chains[platform]
	return chain, ok
}
