package model

// DefaultSymbols is the tracked table in chart order.
var DefaultSymbols = []Symbol{
	{Name: "Copper", Ticker: "HG=F", Unit: UnitPound},
	{Name: "Aluminium", Ticker: "ALI=F", Unit: UnitPound},
	{Name: "Gold", Ticker: "GC=F", Unit: UnitOunce},
	{Name: "Silver", Ticker: "SI=F", Unit: UnitOunce},
	{Name: "Platinum", Ticker: "PL=F", Unit: UnitOunce},
	{Name: "Palladium", Ticker: "PA=F", Unit: UnitOunce},
	{Name: "Rare Earth ETF", Ticker: "REMX", Unit: UnitNone},
	{Name: "Lynas Corp", Ticker: "LYSDY", Unit: UnitNone},
	{Name: "MP Materials", Ticker: "MP", Unit: UnitNone},
}

// SymbolTable resolves display names to tickers, preserving declaration order.
type SymbolTable []Symbol

// Lookup returns the symbol registered under name.
func (t SymbolTable) Lookup(name string) (Symbol, bool) {
	for _, s := range t {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}

// Ticker returns the provider ticker for name, or "" when unknown.
func (t SymbolTable) Ticker(name string) string {
	s, _ := t.Lookup(name)
	return s.Ticker
}

// UnitOf returns the unit of s, falling back to UnitNone when unset.
func UnitOf(s Symbol) Unit {
	if s.Unit == "" {
		return UnitNone
	}
	return s.Unit
}
