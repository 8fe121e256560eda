package adapter

import "context"

// ContractSummary is one entry in a Discovery listing.
type ContractSummary struct {
	Ref          [36]byte
	NumContracts int
}

// ExtendedInfo is the optional enriched detail Discovery can provide for a
// single reference.
type ExtendedInfo struct {
	Ref  [36]byte
	Name string
	Tags []string
}

// Discovery is an optional, best-effort contract listing surface. Its
// failures are never fatal to the core: callers fall back to a static
// contract list when either method errors.
type Discovery interface {
	ListContracts(ctx context.Context) ([]ContractSummary, error)
	ExtendedInfo(ctx context.Context, ref [36]byte) (ExtendedInfo, error)
}
