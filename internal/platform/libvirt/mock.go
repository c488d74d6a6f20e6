package libvirt

import "context"

// Mock is a func-field implementation of Client for tests. Methods
// whose func field is nil report success with zero values, so tests
// only wire the calls they care about.
type Mock struct {
	ListNetworksFunc    func(ctx context.Context) ([]string, error)
	CreateNetworkFunc   func(ctx context.Context, xml string) error
	NetworkIsActiveFunc func(ctx context.Context, name string) (bool, error)
	ActivateNetworkFunc func(ctx context.Context, name string) error
	DestroyNetworkFunc  func(ctx context.Context, name string) error
	DHCPLeasesFunc      func(ctx context.Context, network string) ([]Lease, error)
	ListDomainsFunc     func(ctx context.Context) ([]string, error)
	DomainExistsFunc    func(ctx context.Context, name string) (bool, error)
	DefineDomainFunc    func(ctx context.Context, xml string) error
	StartDomainFunc     func(ctx context.Context, name string) error
	StopDomainFunc      func(ctx context.Context, name string) error
	UndefineDomainFunc  func(ctx context.Context, name string) error
	DomainStateFunc     func(ctx context.Context, name string) (DomainState, error)
	DomainMetadataFunc  func(ctx context.Context, name string) (string, bool, error)
}

func (m *Mock) ListNetworks(ctx context.Context) ([]string, error) {
	if m.ListNetworksFunc == nil {
		return nil, nil
	}
	return m.ListNetworksFunc(ctx)
}

func (m *Mock) CreateNetwork(ctx context.Context, xml string) error {
	if m.CreateNetworkFunc == nil {
		return nil
	}
	return m.CreateNetworkFunc(ctx, xml)
}

func (m *Mock) NetworkIsActive(ctx context.Context, name string) (bool, error) {
	if m.NetworkIsActiveFunc == nil {
		return true, nil
	}
	return m.NetworkIsActiveFunc(ctx, name)
}

func (m *Mock) ActivateNetwork(ctx context.Context, name string) error {
	if m.ActivateNetworkFunc == nil {
		return nil
	}
	return m.ActivateNetworkFunc(ctx, name)
}

func (m *Mock) DestroyNetwork(ctx context.Context, name string) error {
	if m.DestroyNetworkFunc == nil {
		return nil
	}
	return m.DestroyNetworkFunc(ctx, name)
}

func (m *Mock) DHCPLeases(ctx context.Context, network string) ([]Lease, error) {
	if m.DHCPLeasesFunc == nil {
		return nil, nil
	}
	return m.DHCPLeasesFunc(ctx, network)
}

func (m *Mock) ListDomains(ctx context.Context) ([]string, error) {
	if m.ListDomainsFunc == nil {
		return nil, nil
	}
	return m.ListDomainsFunc(ctx)
}

func (m *Mock) DomainExists(ctx context.Context, name string) (bool, error) {
	if m.DomainExistsFunc == nil {
		return false, nil
	}
	return m.DomainExistsFunc(ctx, name)
}

func (m *Mock) DefineDomain(ctx context.Context, xml string) error {
	if m.DefineDomainFunc == nil {
		return nil
	}
	return m.DefineDomainFunc(ctx, xml)
}

func (m *Mock) StartDomain(ctx context.Context, name string) error {
	if m.StartDomainFunc == nil {
		return nil
	}
	return m.StartDomainFunc(ctx, name)
}

func (m *Mock) StopDomain(ctx context.Context, name string) error {
	if m.StopDomainFunc == nil {
		return nil
	}
	return m.StopDomainFunc(ctx, name)
}

func (m *Mock) UndefineDomain(ctx context.Context, name string) error {
	if m.UndefineDomainFunc == nil {
		return nil
	}
	return m.UndefineDomainFunc(ctx, name)
}

func (m *Mock) DomainState(ctx context.Context, name string) (DomainState, error) {
	if m.DomainStateFunc == nil {
		return DomainStateUnknown, nil
	}
	return m.DomainStateFunc(ctx, name)
}

func (m *Mock) DomainMetadata(ctx context.Context, name string) (string, bool, error) {
	if m.DomainMetadataFunc == nil {
		return "", false, nil
	}
	return m.DomainMetadataFunc(ctx, name)
}
