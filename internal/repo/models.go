package repo

// Os timestamps ficam como strings ISO-8601, o formato nativo da base
// embutida (datetime('now')).

// Usuario representa um usuário da empresa (host ou funcionário).
// Um funcionario sempre carrega HostID; um host nunca.
type Usuario struct {
	ID           string  `json:"id"`
	Nome         string  `json:"name"`
	Email        string  `json:"email"`
	CNPJ         string  `json:"cnpj"`
	Role         string  `json:"role"`
	HostID       *string `json:"host_id"`
	CriadoEm     string  `json:"created_at"`
	AtualizadoEm string  `json:"updated_at"`
}

// Papéis de usuário.
const (
	RoleHost        = "host"
	RoleFuncionario = "funcionario"
)

// Credencial é o registro 1:1 de autenticação de um usuário.
type Credencial struct {
	UsuarioID    string `json:"user_id"`
	PasswordHash string `json:"-"`
	CriadoEm     string `json:"created_at"`
}

// Obra é um canteiro/projeto, unidade organizacional de primeiro nível.
type Obra struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Endereco     string  `json:"endereco"`
	Status       string  `json:"status"`
	OwnerID      string  `json:"owner_id"`
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date"`
	Engenheiro   *string `json:"engenheiro"`
	ImageURL     *string `json:"image_url"`
	CriadoEm     string  `json:"created_at"`
	AtualizadoEm string  `json:"updated_at"`
}

// Status de obra.
const (
	ObraAtiva      = "ativa"
	ObraFinalizada = "finalizada"
)

// Estabelecimento é um depósito/almoxarifado.
type Estabelecimento struct {
	ID           string `json:"id"`
	Nome         string `json:"name"`
	Endereco     string `json:"endereco"`
	OwnerID      string `json:"owner_id"`
	CriadoEm     string `json:"created_at"`
	AtualizadoEm string `json:"updated_at"`
}

// Ferramenta é um equipamento rastreado. Local é o variant etiquetado da
// localização atual; status desaparecida é independente do local (uma
// ferramenta sumida preserva a última localização conhecida).
type Ferramenta struct {
	ID                string      `json:"id"`
	Nome              string      `json:"name"`
	Tipo              string      `json:"tipo"`
	Modelo            string      `json:"modelo"`
	Serial            string      `json:"serial"`
	Status            string      `json:"status"`
	Local             Localizacao `json:"local"`
	CadastradoPor     string      `json:"cadastrado_por"`
	OwnerID           string      `json:"owner_id"`
	Descricao         string      `json:"descricao"`
	NF                string      `json:"nf"`
	NFImageURL        *string     `json:"nf_image_url"`
	Data              *string     `json:"data"`
	Valor             *float64    `json:"valor"`
	TempoGarantiaDias *int64      `json:"tempo_garantia_dias"`
	Garantia          string      `json:"garantia"`
	Marca             string      `json:"marca"`
	NumeroLacre       string      `json:"numero_lacre"`
	NumeroPlaca       string      `json:"numero_placa"`
	Adesivo           string      `json:"adesivo"`
	Usuario           string      `json:"usuario"`
	Obra              string      `json:"obra"`
	ImageURL          *string     `json:"image_url"`
	CriadoEm          string      `json:"created_at"`
	AtualizadoEm      string      `json:"updated_at"`
}

// Status de ferramenta.
const (
	FerramentaDisponivel   = "disponivel"
	FerramentaEmUso        = "em_uso"
	FerramentaDesaparecida = "desaparecida"
)

// Movimentacao é uma transferência registrada em log apenas-inserção: o
// fluxo normal nunca atualiza nem remove estas linhas.
type Movimentacao struct {
	ID           string      `json:"id"`
	FerramentaID string      `json:"ferramenta_id"`
	De           Localizacao `json:"de"`
	Para         Localizacao `json:"para"`
	UsuarioID    string      `json:"user_id"`
	Note         string      `json:"note"`
	CriadoEm     string      `json:"created_at"`
}

// Historico é uma entrada de auditoria de ciclo de vida, distinta da
// movimentação. Os campos *Nome vêm preenchidos nas leituras com JOIN.
type Historico struct {
	ID             string      `json:"id"`
	FerramentaID   string      `json:"ferramenta_id"`
	UsuarioID      string      `json:"user_id"`
	Action         string      `json:"action"`
	Details        *string     `json:"details"`
	Local          Localizacao `json:"local"`
	CriadoEm       string      `json:"created_at"`
	UsuarioNome    string      `json:"user_name,omitempty"`
	FerramentaNome string      `json:"ferramenta_name,omitempty"`
}

// ObraImage é um anexo de imagem ordenado de uma obra (apenas URL; o
// upload em si fica fora deste serviço).
type ObraImage struct {
	ID           string `json:"id"`
	ObraID       string `json:"obra_id"`
	ImageURL     string `json:"image_url"`
	Description  string `json:"description"`
	DisplayOrder int64  `json:"display_order"`
	UploadedBy   string `json:"uploaded_by"`
	CriadoEm     string `json:"created_at"`
}

// PermissaoObra é o par único (user_id, obra_id) com flags de acesso.
type PermissaoObra struct {
	ID        string `json:"id"`
	UsuarioID string `json:"user_id"`
	ObraID    string `json:"obra_id"`
	CanView   bool   `json:"can_view"`
	CanEdit   bool   `json:"can_edit"`
	CriadoEm  string `json:"created_at"`
}

// PermissaoFerramenta é o análogo para ferramentas.
type PermissaoFerramenta struct {
	ID           string `json:"id"`
	UsuarioID    string `json:"user_id"`
	FerramentaID string `json:"ferramenta_id"`
	CanView      bool   `json:"can_view"`
	CanEdit      bool   `json:"can_edit"`
	CriadoEm     string `json:"created_at"`
}
