package model

// AssetClass tags which reference catalog a symbol came from.
type AssetClass string

const (
	AssetETF    AssetClass = "etf"
	AssetEquity AssetClass = "equity"
)

// SymbolRecord is one tradable security in the reference catalog.
type SymbolRecord struct {
	Symbol     string     `json:"symbol"`
	Name       string     `json:"name"`
	SymbolName string     `json:"symbol_name"` // "SYM - Name", used by search
	AssetClass AssetClass `json:"asset_class"`
}

// NewSymbolRecord builds a record and its search label.
func NewSymbolRecord(symbol, name string, class AssetClass) SymbolRecord {
	return SymbolRecord{
		Symbol:     symbol,
		Name:       name,
		SymbolName: symbol + " - " + name,
		AssetClass: class,
	}
}
