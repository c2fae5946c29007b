package config

// BasicService is used as a simple base for client services like Prometheus
// monitoring.
type BasicService struct {
	Enabled bool `yaml:"Enabled"`
	// Addresses holds the list of bind addresses in the form of "address:port".
	Addresses []string `yaml:"Addresses"`
}

// GetAddresses returns the set of unique (in terms of raw strings) pairs
// host:port for the given basic service.
func (s BasicService) GetAddresses() []string {
	var (
		seen  = make(map[string]bool, len(s.Addresses))
		addrs = make([]string, 0, len(s.Addresses))
	)
	for _, a := range s.Addresses {
		if !seen[a] {
			seen[a] = true
			addrs = append(addrs, a)
		}
	}
	return addrs
}
