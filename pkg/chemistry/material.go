package chemistry

import (
	"sync"

	"github.com/google/uuid"
)

// MaterialState is the phase a MaterialType occupies at process
// conditions.
type MaterialState int

const (
	Solid MaterialState = iota
	Liquid
	Gas
)

func (s MaterialState) String() string {
	switch s {
	case Solid:
		return "Solid"
	case Liquid:
		return "Liquid"
	case Gas:
		return "Gas"
	default:
		return "Unknown"
	}
}

// AntoineCoefficients are the three constants of the Antoine vapor
// pressure correlation: log10(Psat) = A - B/(T+C), with T in degrees
// Celsius and Psat in mmHg.
type AntoineCoefficients struct {
	A, B, C float64
}

// MaterialType is an immutable-after-registration description of one
// chemical species. Two MaterialTypes with the same Name are the same
// material; MaterialCatalog enforces that at registration time.
type MaterialType struct {
	ID              string
	Name            string
	SpecificGravity float64
	SpecificHeat    float64 // kJ/(kg*K)
	State           MaterialState
	MolecularWeight float64 // g/mol
	Antoine         *AntoineCoefficients
	Henry           *float64
	Ebullioscopic   *float64 // K*kg/mol, solvent property
	EmissionTags    map[string]bool
}

// IsVolatile reports whether this material carries Antoine data.
func (m *MaterialType) IsVolatile() bool {
	return m.Antoine != nil
}

// MaterialCatalog is the registry of known MaterialTypes, keyed by
// name. It is the sole place new MaterialTypes are minted, mirroring
// the single-registration-point idiom of the task graph's Graph.
type MaterialCatalog struct {
	mu     sync.RWMutex
	byName map[string]*MaterialType
	byID   map[string]*MaterialType
}

// NewMaterialCatalog constructs an empty catalog.
func NewMaterialCatalog() *MaterialCatalog {
	return &MaterialCatalog{
		byName: make(map[string]*MaterialType),
		byID:   make(map[string]*MaterialType),
	}
}

// Register mints a MaterialType's ID (if unset) and adds it to the
// catalog. Registering the same name twice replaces the prior entry;
// the catalog does not enforce append-only semantics since test
// fixtures routinely reload properties files.
func (c *MaterialCatalog) Register(m *MaterialType) *MaterialType {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	c.byName[m.Name] = m
	c.byID[m.ID] = m
	return m
}

// Lookup finds a MaterialType by name.
func (c *MaterialCatalog) Lookup(name string) (*MaterialType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.byName[name]
	if !ok {
		return nil, ErrUnknownMaterial
	}
	return m, nil
}

// LookupByID finds a MaterialType by its catalog-assigned ID.
func (c *MaterialCatalog) LookupByID(id string) (*MaterialType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.byID[id]
	if !ok {
		return nil, ErrUnknownMaterial
	}
	return m, nil
}

// Contains reports whether m is registered under its own ID, catching
// the case where a MaterialType pointer was minted before a catalog
// reload dropped or replaced it.
func (c *MaterialCatalog) Contains(m *MaterialType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	existing, ok := c.byID[m.ID]
	return ok && existing == m
}

// All returns every registered MaterialType, in no particular order.
func (c *MaterialCatalog) All() []*MaterialType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*MaterialType, 0, len(c.byName))
	for _, m := range c.byName {
		out = append(out, m)
	}
	return out
}
