package validators

import "workflowstudio/domain/catalog"

// ConnectionPolicy decides whether two ports may be connected. A denial is
// treated like any other gesture that produces no edge.
type ConnectionPolicy interface {
	IsConnectionAllowed(sourceType, sourceHandle, targetType, targetHandle string) bool
}

// ConnectionPolicyFunc adapts a function to ConnectionPolicy.
type ConnectionPolicyFunc func(sourceType, sourceHandle, targetType, targetHandle string) bool

func (f ConnectionPolicyFunc) IsConnectionAllowed(sourceType, sourceHandle, targetType, targetHandle string) bool {
	return f(sourceType, sourceHandle, targetType, targetHandle)
}

// AllowAllConnections is the default policy.
var AllowAllConnections ConnectionPolicy = ConnectionPolicyFunc(
	func(string, string, string, string) bool { return true },
)

// CatalogPolicy restricts connections by the port lists and accepts lists of
// catalog blocks. Types missing from the catalog are unrestricted.
type CatalogPolicy struct {
	catalog     catalog.Catalog
	enforcePort bool
}

// NewCatalogPolicy creates a policy over c. With enforcePorts, handles must
// be among the ports the blocks declare.
func NewCatalogPolicy(c catalog.Catalog, enforcePorts bool) *CatalogPolicy {
	return &CatalogPolicy{catalog: c, enforcePort: enforcePorts}
}

func (p *CatalogPolicy) IsConnectionAllowed(sourceType, sourceHandle, targetType, targetHandle string) bool {
	source, sourceKnown := p.catalog.Lookup(sourceType)
	target, targetKnown := p.catalog.Lookup(targetType)

	if targetKnown {
		if target.SourceOnly || !target.AcceptsFrom(sourceType) {
			return false
		}
		if p.enforcePort && !target.HasInput(targetHandle) {
			return false
		}
	}
	if sourceKnown && p.enforcePort && !source.HasOutput(sourceHandle) {
		return false
	}
	return true
}
