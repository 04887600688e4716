package store

// BootstrapHostID identifica o host semeado na criação da base. Este
// usuário não pode ser removido pelos fluxos normais.
const BootstrapHostID = "host-fernando"

const (
	bootstrapHostNome  = "Fernando Antunes"
	bootstrapHostEmail = "fernando@pratica.eng.br"
	bootstrapHostCNPJ  = "12345678000190"
)

// schemaSQL replica o contrato declarativo da base: nomes de tabela,
// checks de enumerações e direções de cascade. Toda criação usa
// IF NOT EXISTS, então aplicar o schema repetidas vezes é seguro.
const schemaSQL = `
  CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT UNIQUE NOT NULL,
    cnpj TEXT,
    role TEXT NOT NULL CHECK (role IN ('host', 'funcionario')),
    host_id TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now')),
    FOREIGN KEY (host_id) REFERENCES users(id) ON DELETE CASCADE
  );

  CREATE TABLE IF NOT EXISTS user_credentials (
    user_id TEXT PRIMARY KEY,
    password_hash TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now')),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
  );

  CREATE TABLE IF NOT EXISTS obras (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT DEFAULT '',
    endereco TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'ativa' CHECK (status IN ('ativa', 'finalizada')),
    owner_id TEXT NOT NULL,
    start_date TEXT DEFAULT (date('now')),
    end_date TEXT,
    engenheiro TEXT,
    image_url TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now')),
    FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
  );

  CREATE TABLE IF NOT EXISTS estabelecimentos (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    endereco TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now')),
    FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
  );

  CREATE TABLE IF NOT EXISTS ferramentas (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    tipo TEXT DEFAULT '',
    modelo TEXT DEFAULT '',
    serial TEXT DEFAULT '',
    status TEXT NOT NULL DEFAULT 'disponivel' CHECK (status IN ('disponivel', 'em_uso', 'desaparecida')),
    current_type TEXT CHECK (current_type IN ('obra', 'estabelecimento')),
    current_id TEXT,
    cadastrado_por TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    descricao TEXT DEFAULT '',
    nf TEXT DEFAULT '',
    nf_image_url TEXT,
    data TEXT,
    valor REAL,
    tempo_garantia_dias INTEGER,
    garantia TEXT DEFAULT '',
    marca TEXT DEFAULT '',
    numero_lacre TEXT DEFAULT '',
    numero_placa TEXT DEFAULT '',
    adesivo TEXT DEFAULT '',
    usuario TEXT DEFAULT '',
    obra TEXT DEFAULT '',
    image_url TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now')),
    FOREIGN KEY (cadastrado_por) REFERENCES users(id),
    FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
  );

  CREATE TABLE IF NOT EXISTS movimentacoes (
    id TEXT PRIMARY KEY,
    ferramenta_id TEXT NOT NULL,
    from_type TEXT,
    from_id TEXT,
    to_type TEXT NOT NULL,
    to_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    note TEXT DEFAULT '',
    created_at TEXT DEFAULT (datetime('now')),
    FOREIGN KEY (ferramenta_id) REFERENCES ferramentas(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id)
  );

  CREATE TABLE IF NOT EXISTS historico (
    id TEXT PRIMARY KEY,
    ferramenta_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    action TEXT NOT NULL,
    details TEXT,
    location_type TEXT,
    location_id TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    FOREIGN KEY (ferramenta_id) REFERENCES ferramentas(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id)
  );

  CREATE TABLE IF NOT EXISTS obra_images (
    id TEXT PRIMARY KEY,
    obra_id TEXT NOT NULL,
    image_url TEXT NOT NULL,
    description TEXT DEFAULT '',
    display_order INTEGER DEFAULT 0,
    uploaded_by TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now')),
    FOREIGN KEY (obra_id) REFERENCES obras(id) ON DELETE CASCADE,
    FOREIGN KEY (uploaded_by) REFERENCES users(id)
  );

  CREATE TABLE IF NOT EXISTS user_obra_permissions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    obra_id TEXT NOT NULL,
    can_view INTEGER DEFAULT 0,
    can_edit INTEGER DEFAULT 0,
    created_at TEXT DEFAULT (datetime('now')),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (obra_id) REFERENCES obras(id) ON DELETE CASCADE,
    UNIQUE(user_id, obra_id)
  );

  CREATE TABLE IF NOT EXISTS user_ferramenta_permissions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    ferramenta_id TEXT NOT NULL,
    can_view INTEGER DEFAULT 0,
    can_edit INTEGER DEFAULT 0,
    created_at TEXT DEFAULT (datetime('now')),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (ferramenta_id) REFERENCES ferramentas(id) ON DELETE CASCADE,
    UNIQUE(user_id, ferramenta_id)
  );

  CREATE INDEX IF NOT EXISTS idx_users_host_id ON users(host_id);
  CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
  CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
  CREATE INDEX IF NOT EXISTS idx_obras_owner_id ON obras(owner_id);
  CREATE INDEX IF NOT EXISTS idx_obras_status ON obras(status);
  CREATE INDEX IF NOT EXISTS idx_estabelecimentos_owner_id ON estabelecimentos(owner_id);
  CREATE INDEX IF NOT EXISTS idx_ferramentas_owner_id ON ferramentas(owner_id);
  CREATE INDEX IF NOT EXISTS idx_ferramentas_current ON ferramentas(current_type, current_id);
  CREATE INDEX IF NOT EXISTS idx_ferramentas_status ON ferramentas(status);
  CREATE INDEX IF NOT EXISTS idx_movimentacoes_ferramenta_id ON movimentacoes(ferramenta_id);
  CREATE INDEX IF NOT EXISTS idx_movimentacoes_user_id ON movimentacoes(user_id);
  CREATE INDEX IF NOT EXISTS idx_historico_ferramenta_id ON historico(ferramenta_id);
  CREATE INDEX IF NOT EXISTS idx_historico_user_id ON historico(user_id);
  CREATE INDEX IF NOT EXISTS idx_obra_images_obra_id ON obra_images(obra_id);
`

var validTables = map[string]struct{}{
	"users":                       {},
	"user_credentials":            {},
	"obras":                       {},
	"estabelecimentos":            {},
	"ferramentas":                 {},
	"movimentacoes":               {},
	"historico":                   {},
	"obra_images":                 {},
	"user_obra_permissions":       {},
	"user_ferramenta_permissions": {},
}

// ValidTable informa se o nome pertence ao schema. Nomes de tabela nunca
// são interpolados sem passar por esta checagem.
func ValidTable(name string) bool {
	_, ok := validTables[name]
	return ok
}
