package transparency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Dispensa is a normalised waiver-process record, shaped for the
// pre-screen and downstream agent input regardless of the upstream
// source's own field names.
type Dispensa struct {
	ID            string                 `json:"id"`
	Numero        string                 `json:"numero"`
	Objeto        string                 `json:"objeto"`
	Valor         float64                `json:"valor"`
	Fornecedor    Fornecedor             `json:"fornecedor"`
	Orgao         Orgao                  `json:"orgao"`
	Data          string                 `json:"data"`
	Justificativa string                 `json:"justificativa"`
	Metadata      map[string]interface{} `json:"metadata"`
}

type Fornecedor struct {
	Nome string `json:"nome"`
	CNPJ string `json:"cnpj"`
}

type Orgao struct {
	Nome   string `json:"nome"`
	Codigo string `json:"codigo"`
}

type rawDispensa struct {
	ID              string  `json:"id"`
	Numero          string  `json:"numero"`
	Objeto          string  `json:"objeto"`
	Valor           float64 `json:"valor"`
	FornecedorNome  string  `json:"fornecedor_nome"`
	FornecedorCNPJ  string  `json:"fornecedor_cnpj"`
	OrgaoNome       string  `json:"orgao_nome"`
	OrgaoCodigo     string  `json:"orgao_codigo"`
	Data            string  `json:"data"`
	Justificativa   string  `json:"justificativa"`
}

func normalize(r rawDispensa, source string) Dispensa {
	return Dispensa{
		ID:     r.ID,
		Numero: r.Numero,
		Objeto: r.Objeto,
		Valor:  r.Valor,
		Fornecedor: Fornecedor{
			Nome: r.FornecedorNome,
			CNPJ: r.FornecedorCNPJ,
		},
		Orgao: Orgao{
			Nome:   r.OrgaoNome,
			Codigo: r.OrgaoCodigo,
		},
		Data:          r.Data,
		Justificativa: r.Justificativa,
		Metadata: map[string]interface{}{
			"source":        source,
			"fetched_at":    time.Now().UTC().Format(time.RFC3339),
			"original_data": r,
		},
	}
}

// DispensaSource is the External Dispensa Source boundary: a
// bearer-authenticated feed of emergency/waiver procurement records.
type DispensaSource struct {
	baseURL    string
	bearerToken string
	httpClient *http.Client
	sourceName string
}

// NewDispensaSource builds a DispensaSource authenticated with a static
// bearer token.
func NewDispensaSource(baseURL, bearerToken string) *DispensaSource {
	return &DispensaSource{
		baseURL:     baseURL,
		bearerToken: bearerToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		sourceName:  "dispensa_source",
	}
}

// ListAll fetches every available Dispensa record.
func (d *DispensaSource) ListAll(ctx context.Context) ([]Dispensa, error) {
	var raws []rawDispensa
	if err := d.get(ctx, d.baseURL+"/dispensas", &raws); err != nil {
		return nil, err
	}

	out := make([]Dispensa, len(raws))
	for i, r := range raws {
		out[i] = normalize(r, d.sourceName)
	}
	return out, nil
}

// GetByID fetches a single Dispensa, returning nil if not found.
func (d *DispensaSource) GetByID(ctx context.Context, id string) (*Dispensa, error) {
	var raw rawDispensa
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/dispensas/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+d.bearerToken)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dispensa fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dispensa fetch: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode dispensa: %w", err)
	}

	normalized := normalize(raw, d.sourceName)
	return &normalized, nil
}

// Health reports whether the source currently responds.
func (d *DispensaSource) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+d.bearerToken)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (d *DispensaSource) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+d.bearerToken)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dispensa request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dispensa request: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
