package repo

import (
	"time"

	"github.com/google/uuid"
)

// NivelAcesso agrupa os quatro indicadores de papel do usuário.
// Mais de um indicador pode estar ativo; a resolução de papel efetivo
// segue ordem de prioridade e fica em service.ResolvePapel.
type NivelAcesso struct {
	Municipe      bool `json:"municipe"`
	Operador      bool `json:"operador"`
	Secretario    bool `json:"secretario"`
	Administrador bool `json:"administrador"`
}

// Usuario representa munícipe ou colaborador da prefeitura.
type Usuario struct {
	ID          uuid.UUID   `json:"id"`
	Nome        string      `json:"nome"`
	Email       string      `json:"email"`
	Username    *string     `json:"username,omitempty"`
	CPF         *string     `json:"cpf,omitempty"`
	CNPJ        *string     `json:"cnpj,omitempty"`
	SenhaHash   string      `json:"-"`
	NivelAcesso NivelAcesso `json:"nivel_acesso"`
	GrupoID     *uuid.UUID  `json:"grupo_id,omitempty"`

	EmailVerificado bool `json:"email_verificado"`

	// Estado de sessão e de tokens de uso único. Os valores emitidos por
	// último ficam gravados aqui: sobrescrever é revogar.
	AccessToken            *string    `json:"-"`
	RefreshToken           *string    `json:"-"`
	CodigoRecuperaSenha    *string    `json:"-"`
	ExpiraRecuperaSenha    *time.Time `json:"-"`
	TokenVerificacaoEmail  *string    `json:"-"`
	ExpiraVerificacaoEmail *time.Time `json:"-"`
	VersaoToken            int64      `json:"-"`

	Ativo        bool       `json:"ativo"`
	CriadoEm     time.Time  `json:"criado_em"`
	AtualizadoEm *time.Time `json:"atualizado_em,omitempty"`
}

// Grupo nomeia um conjunto de permissões.
type Grupo struct {
	ID       uuid.UUID `json:"id"`
	Nome     string    `json:"nome"`
	CriadoEm time.Time `json:"criado_em"`
}

// Permissao descreve flags CRUD de um grupo sobre rota+domínio.
// O par (rota, dominio) é único dentro do grupo.
type Permissao struct {
	ID         uuid.UUID `json:"id"`
	GrupoID    uuid.UUID `json:"grupo_id"`
	Rota       string    `json:"rota"`
	Dominio    string    `json:"dominio"`
	Buscar     bool      `json:"buscar"`
	Criar      bool      `json:"criar"`
	Substituir bool      `json:"substituir"`
	Modificar  bool      `json:"modificar"`
	Deletar    bool      `json:"deletar"`
}

// Secretaria representa secretaria municipal; serve de chave de escopo
// para o modelo de autorização.
type Secretaria struct {
	ID       uuid.UUID `json:"id"`
	Nome     string    `json:"nome"`
	Sigla    string    `json:"sigla"`
	Ativa    bool      `json:"ativa"`
	CriadoEm time.Time `json:"criado_em"`
}

// TipoDemanda cataloga os tipos de solicitação atendidos.
type TipoDemanda struct {
	ID           uuid.UUID  `json:"id"`
	Nome         string     `json:"nome"`
	SecretariaID *uuid.UUID `json:"secretaria_id,omitempty"`
	Ativo        bool       `json:"ativo"`
	CriadoEm     time.Time  `json:"criado_em"`
}

// Demanda representa uma solicitação de serviço aberta por munícipe.
type Demanda struct {
	ID            uuid.UUID  `json:"id"`
	Protocolo     string     `json:"protocolo"`
	Titulo        string     `json:"titulo"`
	Descricao     string     `json:"descricao"`
	Status        string     `json:"status"`
	TipoDemandaID *uuid.UUID `json:"tipo_demanda_id,omitempty"`
	SecretariaID  uuid.UUID  `json:"secretaria_id"`
	MunicipeID    uuid.UUID  `json:"municipe_id"`
	CriadoEm      time.Time  `json:"criado_em"`
	AtualizadoEm  *time.Time `json:"atualizado_em,omitempty"`
}

// DemandaAnexo referencia uma foto enviada junto à demanda; o blob fica
// no object storage, aqui só a URL pública.
type DemandaAnexo struct {
	ID        uuid.UUID `json:"id"`
	DemandaID uuid.UUID `json:"demanda_id"`
	Nome      string    `json:"nome"`
	URL       string    `json:"url"`
	CriadoEm  time.Time `json:"criado_em"`
}

// Status possíveis de uma demanda.
const (
	DemandaAberta      = "ABERTA"
	DemandaEmAndamento = "EM_ANDAMENTO"
	DemandaResolvida   = "RESOLVIDA"
	DemandaIndeferida  = "INDEFERIDA"
)
