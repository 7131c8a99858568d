package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gestaozabele/demandas/internal/repo"
	"github.com/gestaozabele/demandas/internal/storage"
	"github.com/gestaozabele/demandas/internal/util"
)

// anexoMaxBytes limita o tamanho aceito por foto enviada.
const anexoMaxBytes = 5 << 20

// demandaRepository enumera o acesso a dados do serviço de demandas.
type demandaRepository interface {
	GetDemandaByID(ctx context.Context, id uuid.UUID) (repo.Demanda, error)
	InsertDemanda(ctx context.Context, d repo.Demanda) (repo.Demanda, error)
	ListDemandas(ctx context.Context, filter repo.DemandaFilter) ([]repo.Demanda, error)
	UpdateDemandaStatus(ctx context.Context, id uuid.UUID, status string) (repo.Demanda, error)
	DeleteDemanda(ctx context.Context, id uuid.UUID) error
	GetTipoDemandaByID(ctx context.Context, id uuid.UUID) (repo.TipoDemanda, error)
	InsertAnexo(ctx context.Context, a repo.DemandaAnexo) (repo.DemandaAnexo, error)
	ListAnexosByDemanda(ctx context.Context, demandaID uuid.UUID) ([]repo.DemandaAnexo, error)
}

// DemandaService aplica papel e escopo de secretaria sobre as demandas.
type DemandaService struct {
	repo     demandaRepository
	rbac     *RBACService
	uploader storage.Uploader
}

// NewDemandaService cria nova instância.
func NewDemandaService(r demandaRepository, rbac *RBACService, uploader storage.Uploader) *DemandaService {
	if uploader == nil {
		uploader = storage.NoopUploader{}
	}
	return &DemandaService{repo: r, rbac: rbac, uploader: uploader}
}

// CriarDemandaParams descreve a abertura de uma demanda.
type CriarDemandaParams struct {
	Titulo        string
	Descricao     string
	TipoDemandaID *uuid.UUID
	SecretariaID  uuid.UUID
	MunicipeID    *uuid.UUID
}

// Criar abre demanda. Munícipe sempre abre em nome próprio, ignorando
// qualquer municipe_id enviado; equipes podem registrar em nome de um
// munícipe atendido no balcão.
func (s *DemandaService) Criar(ctx context.Context, p Principal, params CriarDemandaParams) (repo.Demanda, error) {
	if err := util.RequireString(params.Titulo, "titulo"); err != nil {
		return repo.Demanda{}, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}
	if err := util.RequireString(params.Descricao, "descricao"); err != nil {
		return repo.Demanda{}, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}

	municipeID := p.Usuario.ID
	if p.Papel != PapelMunicipe && params.MunicipeID != nil {
		municipeID = *params.MunicipeID
	}

	secretariaID := params.SecretariaID
	if params.TipoDemandaID != nil {
		tipo, err := s.repo.GetTipoDemandaByID(ctx, *params.TipoDemandaID)
		if err != nil {
			return repo.Demanda{}, fmt.Errorf("%w: tipo de demanda inexistente", ErrValidacao)
		}
		// tipo com secretaria definida decide o roteamento
		if tipo.SecretariaID != nil {
			secretariaID = *tipo.SecretariaID
		}
	}
	if secretariaID == uuid.Nil {
		return repo.Demanda{}, fmt.Errorf("%w: secretaria_id obrigatório", ErrValidacao)
	}

	return s.repo.InsertDemanda(ctx, repo.Demanda{
		ID:            util.NewID(),
		Protocolo:     util.NovoProtocolo(),
		Titulo:        params.Titulo,
		Descricao:     params.Descricao,
		Status:        repo.DemandaAberta,
		TipoDemandaID: params.TipoDemandaID,
		SecretariaID:  secretariaID,
		MunicipeID:    municipeID,
	})
}

// Get devolve a demanda se o papel/escopo permitir.
func (s *DemandaService) Get(ctx context.Context, p Principal, id uuid.UUID) (repo.Demanda, error) {
	demanda, err := s.repo.GetDemandaByID(ctx, id)
	if err != nil {
		return repo.Demanda{}, err
	}
	if err := s.rbac.PodeAcessarDemanda(p, demanda); err != nil {
		return repo.Demanda{}, err
	}
	return demanda, nil
}

// List injeta o escopo do principal como filtro implícito: munícipe vê as
// próprias demandas, equipes as das suas secretarias, administrador todas.
func (s *DemandaService) List(ctx context.Context, p Principal, status string) ([]repo.Demanda, error) {
	filter := repo.DemandaFilter{Status: status}
	switch p.Papel {
	case PapelAdministrador:
	case PapelSecretario, PapelOperador:
		if len(p.Secretarias) == 0 {
			return nil, nil
		}
		filter.SecretariaIDs = p.Secretarias
	default:
		id := p.Usuario.ID
		filter.MunicipeID = &id
	}
	return s.repo.ListDemandas(ctx, filter)
}

// AtualizarStatus muda a situação da demanda; restrito às equipes da
// secretaria responsável e a administradores.
func (s *DemandaService) AtualizarStatus(ctx context.Context, p Principal, id uuid.UUID, status string) (repo.Demanda, error) {
	switch status {
	case repo.DemandaAberta, repo.DemandaEmAndamento, repo.DemandaResolvida, repo.DemandaIndeferida:
	default:
		return repo.Demanda{}, fmt.Errorf("%w: status desconhecido", ErrValidacao)
	}

	demanda, err := s.repo.GetDemandaByID(ctx, id)
	if err != nil {
		return repo.Demanda{}, err
	}
	if p.Papel == PapelMunicipe {
		return repo.Demanda{}, ErrForbidden
	}
	if err := s.rbac.PodeAcessarDemanda(p, demanda); err != nil {
		return repo.Demanda{}, err
	}

	return s.repo.UpdateDemandaStatus(ctx, id, status)
}

// AnexarFoto grava a imagem no object storage e registra a referência na
// demanda. Segue a mesma regra de acesso da leitura.
func (s *DemandaService) AnexarFoto(ctx context.Context, p Principal, demandaID uuid.UUID, nome, contentType string, conteudo []byte) (repo.DemandaAnexo, error) {
	demanda, err := s.repo.GetDemandaByID(ctx, demandaID)
	if err != nil {
		return repo.DemandaAnexo{}, err
	}
	if err := s.rbac.PodeAcessarDemanda(p, demanda); err != nil {
		return repo.DemandaAnexo{}, err
	}

	if len(conteudo) == 0 {
		return repo.DemandaAnexo{}, fmt.Errorf("%w: arquivo vazio", ErrValidacao)
	}
	if len(conteudo) > anexoMaxBytes {
		return repo.DemandaAnexo{}, fmt.Errorf("%w: arquivo excede 5MB", ErrValidacao)
	}
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
	default:
		return repo.DemandaAnexo{}, fmt.Errorf("%w: tipo de arquivo não aceito", ErrValidacao)
	}

	anexoID := util.NewID()
	result, err := s.uploader.Upload(ctx, storage.UploadInput{
		Key:          fmt.Sprintf("demandas/%s/%s", demanda.ID, anexoID),
		Body:         conteudo,
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		return repo.DemandaAnexo{}, err
	}

	return s.repo.InsertAnexo(ctx, repo.DemandaAnexo{
		ID:        anexoID,
		DemandaID: demanda.ID,
		Nome:      nome,
		URL:       result.URL,
	})
}

// Anexos lista os anexos da demanda sob a regra de acesso dela.
func (s *DemandaService) Anexos(ctx context.Context, p Principal, demandaID uuid.UUID) ([]repo.DemandaAnexo, error) {
	demanda, err := s.repo.GetDemandaByID(ctx, demandaID)
	if err != nil {
		return nil, err
	}
	if err := s.rbac.PodeAcessarDemanda(p, demanda); err != nil {
		return nil, err
	}
	return s.repo.ListAnexosByDemanda(ctx, demandaID)
}

// Deletar remove a demanda: administrador sempre; munícipe apenas a
// própria e enquanto ainda aberta.
func (s *DemandaService) Deletar(ctx context.Context, p Principal, id uuid.UUID) error {
	demanda, err := s.repo.GetDemandaByID(ctx, id)
	if err != nil {
		return err
	}

	switch {
	case p.Papel == PapelAdministrador:
	case p.Usuario.ID == demanda.MunicipeID && demanda.Status == repo.DemandaAberta:
	default:
		return ErrForbidden
	}

	return s.repo.DeleteDemanda(ctx, id)
}
