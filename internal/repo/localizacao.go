package repo

import (
	"encoding/json"
	"fmt"
)

// TipoLocal enumera os destinos possíveis de uma ferramenta.
type TipoLocal string

const (
	TipoObra            TipoLocal = "obra"
	TipoEstabelecimento TipoLocal = "estabelecimento"
)

// Localizacao é a referência polimórfica de localização (obra ou
// estabelecimento). Em memória é um variant etiquetado; o par de colunas
// (tipo, id) existe apenas na borda de armazenamento, de modo que código
// de domínio nunca manuseia uma combinação tipo/id inválida.
type Localizacao struct {
	tipo TipoLocal
	id   string
	ok   bool
}

// LocalObra referencia uma obra.
func LocalObra(id string) Localizacao {
	return Localizacao{tipo: TipoObra, id: id, ok: true}
}

// LocalEstabelecimento referencia um estabelecimento.
func LocalEstabelecimento(id string) Localizacao {
	return Localizacao{tipo: TipoEstabelecimento, id: id, ok: true}
}

// SemLocal é a ausência de localização.
func SemLocal() Localizacao {
	return Localizacao{}
}

// NovaLocalizacao valida o par tipo/id vindo de fora do domínio.
func NovaLocalizacao(tipo, id string) (Localizacao, error) {
	switch TipoLocal(tipo) {
	case TipoObra, TipoEstabelecimento:
	default:
		return Localizacao{}, fmt.Errorf("tipo de localização inválido: %q", tipo)
	}
	if id == "" {
		return Localizacao{}, fmt.Errorf("localização do tipo %q sem id", tipo)
	}
	return Localizacao{tipo: TipoLocal(tipo), id: id, ok: true}, nil
}

// Vazia informa se não há localização.
func (l Localizacao) Vazia() bool { return !l.ok }

// Tipo devolve a etiqueta; o bool é false quando vazia.
func (l Localizacao) Tipo() (TipoLocal, bool) { return l.tipo, l.ok }

// ID devolve o identificador referenciado; o bool é false quando vazia.
func (l Localizacao) ID() (string, bool) { return l.id, l.ok }

// Colunas converte para o par (tipo, id) da borda de armazenamento.
// Ambos nil quando vazia, ambos preenchidos caso contrário.
func (l Localizacao) Colunas() (any, any) {
	if !l.ok {
		return nil, nil
	}
	return string(l.tipo), l.id
}

// localizacaoDeColunas reconstrói o variant a partir das duas colunas.
// nil/nil vira SemLocal; um lado preenchido sem o outro é erro de dado.
func localizacaoDeColunas(tipo, id any) (Localizacao, error) {
	t, _ := tipo.(string)
	i, _ := id.(string)
	if t == "" && i == "" {
		return SemLocal(), nil
	}
	if t == "" || i == "" {
		return Localizacao{}, fmt.Errorf("par de localização incompleto: tipo=%q id=%q", t, i)
	}
	return NovaLocalizacao(t, i)
}

type localizacaoJSON struct {
	Tipo string `json:"tipo"`
	ID   string `json:"id"`
}

// MarshalJSON serializa como {"tipo","id"} ou null quando vazia.
func (l Localizacao) MarshalJSON() ([]byte, error) {
	if !l.ok {
		return []byte("null"), nil
	}
	return json.Marshal(localizacaoJSON{Tipo: string(l.tipo), ID: l.id})
}

// UnmarshalJSON aceita null ou o objeto {"tipo","id"}.
func (l *Localizacao) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = SemLocal()
		return nil
	}
	var raw localizacaoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	loc, err := NovaLocalizacao(raw.Tipo, raw.ID)
	if err != nil {
		return err
	}
	*l = loc
	return nil
}
