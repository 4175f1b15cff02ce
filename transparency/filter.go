// Package transparency implements the external boundary onto Brazil's
// Portal da Transparência contract feed and a supplementary Dispensa
// (waiver-process) source, both consumed by the auto-investigation
// monitor's fetch step.
package transparency

// Filter is the contract query shape. Dates are DD/MM/YYYY per the
// upstream API convention.
type Filter struct {
	DataInicial   string
	DataFinal     string
	CodigoOrgao   string
	ValorMinimo   float64
	ValorMaximo   float64
	Modalidade    string
	Pagina        int
	TamanhoPagina int
}

// ContractRecord is opaque upstream JSON kept as a plain map; the fields
// the pre-screen and agents read have named accessors (ID, Objeto, Valor,
// Modalidade, NumeroProponentes), and every other field stays in the map.
type ContractRecord map[string]interface{}

func (c ContractRecord) stringField(keys ...string) string {
	for _, k := range keys {
		if v, ok := c[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func (c ContractRecord) floatField(keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := c[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		}
	}
	return 0, false
}

// ID returns the contract's identifier.
func (c ContractRecord) ID() string { return c.stringField("id") }

// Objeto returns the contract's description text.
func (c ContractRecord) Objeto() string { return c.stringField("objeto") }

// Valor returns the contract value, preferring valorInicial then
// valorGlobal, matching the pre-screen's field precedence.
func (c ContractRecord) Valor() (float64, bool) {
	return c.floatField("valorInicial", "valorGlobal")
}

// Modalidade returns the bidding modality text (e.g. "Dispensa").
func (c ContractRecord) Modalidade() string { return c.stringField("modalidadeLicitacao") }

// NumeroProponentes returns the bidder count, or 0 if absent.
func (c ContractRecord) NumeroProponentes() int {
	if v, ok := c.floatField("numeroProponentes"); ok {
		return int(v)
	}
	return 0
}
