package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/demandas/internal/auth"
	"github.com/gestaozabele/demandas/internal/repo"
	"github.com/gestaozabele/demandas/internal/util"
)

// usuarioRepository enumera o acesso a dados do serviço de usuários.
type usuarioRepository interface {
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	ListUsuarios(ctx context.Context, filter repo.UsuarioFilter) ([]repo.Usuario, error)
	InsertUsuario(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error)
	UpdateUsuario(ctx context.Context, arg repo.UpdateUsuarioParams) (repo.Usuario, error)
	DeleteUsuario(ctx context.Context, id uuid.UUID) error
	SetSecretariasDoUsuario(ctx context.Context, usuarioID uuid.UUID, secretariaIDs []uuid.UUID) error
	ListSecretariaIDsByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]uuid.UUID, error)
}

// UsuarioService aplica o modelo de autorização sobre o CRUD de usuários.
type UsuarioService struct {
	repo usuarioRepository
	rbac *RBACService
}

// NewUsuarioService cria nova instância.
func NewUsuarioService(r usuarioRepository, rbac *RBACService) *UsuarioService {
	return &UsuarioService{repo: r, rbac: rbac}
}

// Get devolve o perfil do alvo se o papel/escopo do principal permitir.
func (s *UsuarioService) Get(ctx context.Context, p Principal, alvoID uuid.UUID) (repo.Usuario, error) {
	if err := s.rbac.PodeAcessarUsuario(ctx, p, alvoID); err != nil {
		return repo.Usuario{}, err
	}
	return s.repo.GetUsuarioByID(ctx, alvoID)
}

// List devolve usuários visíveis ao principal. Sem alvo específico, o
// escopo vira filtro implícito em vez de rejeição: secretário lista as
// próprias secretarias; operador e munícipe enxergam só a si.
func (s *UsuarioService) List(ctx context.Context, p Principal) ([]repo.Usuario, error) {
	switch p.Papel {
	case PapelAdministrador:
		return s.repo.ListUsuarios(ctx, repo.UsuarioFilter{})
	case PapelSecretario:
		if len(p.Secretarias) == 0 {
			return nil, nil
		}
		return s.repo.ListUsuarios(ctx, repo.UsuarioFilter{SecretariaIDs: p.Secretarias})
	default:
		user, err := s.repo.GetUsuarioByID(ctx, p.Usuario.ID)
		if err != nil {
			return nil, err
		}
		return []repo.Usuario{user}, nil
	}
}

// CriarUsuarioParams descreve criação administrativa de usuário.
type CriarUsuarioParams struct {
	Nome        string
	Email       string
	Senha       string
	Username    *string
	CPF         *string
	CNPJ        *string
	NivelAcesso *repo.NivelAcesso
	GrupoID     *uuid.UUID
	Secretarias []uuid.UUID
}

// Criar cadastra usuário por quem não é munícipe. Campos privilegiados
// (nivel_acesso, grupo, secretarias) só são aceitos de administrador;
// vindos de outro papel são descartados em silêncio.
func (s *UsuarioService) Criar(ctx context.Context, p Principal, params CriarUsuarioParams) (repo.Usuario, error) {
	if err := s.rbac.PodeCriarUsuario(p); err != nil {
		return repo.Usuario{}, err
	}

	if err := util.ValidateEmail(params.Email); err != nil {
		return repo.Usuario{}, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}
	if err := util.ValidatePassword(params.Senha); err != nil {
		return repo.Usuario{}, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}
	if err := util.RequireString(params.Nome, "nome"); err != nil {
		return repo.Usuario{}, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}

	nivel := repo.NivelAcesso{Municipe: true}
	var grupoID *uuid.UUID
	var secretarias []uuid.UUID
	if p.Papel == PapelAdministrador {
		if params.NivelAcesso != nil {
			nivel = *params.NivelAcesso
		}
		grupoID = params.GrupoID
		secretarias = params.Secretarias
	} else if params.NivelAcesso != nil || params.GrupoID != nil || len(params.Secretarias) > 0 {
		log.Warn().Str("papel", p.Papel.String()).
			Msg("campos privilegiados descartados em criação de usuário")
	}

	hash, err := auth.Hash(params.Senha)
	if err != nil {
		return repo.Usuario{}, err
	}

	user, err := s.repo.InsertUsuario(ctx, repo.InsertUsuarioParams{
		ID:          util.NewID(),
		Nome:        params.Nome,
		Email:       params.Email,
		Username:    params.Username,
		CPF:         params.CPF,
		CNPJ:        params.CNPJ,
		SenhaHash:   hash,
		NivelAcesso: nivel,
		GrupoID:     grupoID,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicado) {
			return repo.Usuario{}, fmt.Errorf("%w: e-mail já cadastrado", ErrValidacao)
		}
		return repo.Usuario{}, err
	}

	if len(secretarias) > 0 {
		if err := s.repo.SetSecretariasDoUsuario(ctx, user.ID, secretarias); err != nil {
			return repo.Usuario{}, err
		}
	}

	return user, nil
}

// AtualizarUsuarioParams descreve atualização parcial de perfil.
type AtualizarUsuarioParams struct {
	Nome        *string
	Email       *string
	Username    *string
	CPF         *string
	CNPJ        *string
	NivelAcesso *repo.NivelAcesso
	GrupoID     *uuid.UUID
	Secretarias []uuid.UUID
}

// Atualizar aplica atualização parcial respeitando papel e escopo.
// Não administrador que envie grupo, nivel_acesso ou secretarias tem
// esses campos removidos antes da persistência, sem erro.
func (s *UsuarioService) Atualizar(ctx context.Context, p Principal, alvoID uuid.UUID, params AtualizarUsuarioParams) (repo.Usuario, error) {
	if err := s.rbac.PodeAcessarUsuario(ctx, p, alvoID); err != nil {
		return repo.Usuario{}, err
	}

	if params.Email != nil {
		if err := util.ValidateEmail(*params.Email); err != nil {
			return repo.Usuario{}, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
		}
	}

	arg := repo.UpdateUsuarioParams{
		ID:       alvoID,
		Nome:     params.Nome,
		Email:    params.Email,
		Username: params.Username,
		CPF:      params.CPF,
		CNPJ:     params.CNPJ,
	}

	if p.Papel == PapelAdministrador {
		arg.NivelAcesso = params.NivelAcesso
		arg.GrupoID = params.GrupoID
	} else if params.NivelAcesso != nil || params.GrupoID != nil || len(params.Secretarias) > 0 {
		log.Warn().Str("papel", p.Papel.String()).
			Msg("campos privilegiados descartados em atualização de usuário")
	}

	user, err := s.repo.UpdateUsuario(ctx, arg)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicado) {
			return repo.Usuario{}, fmt.Errorf("%w: e-mail já cadastrado", ErrValidacao)
		}
		return repo.Usuario{}, err
	}

	if p.Papel == PapelAdministrador && params.Secretarias != nil {
		if err := s.repo.SetSecretariasDoUsuario(ctx, alvoID, params.Secretarias); err != nil {
			return repo.Usuario{}, err
		}
	}

	return user, nil
}

// Deletar remove o usuário; administrador remove qualquer um, os demais
// papéis apenas a própria conta.
func (s *UsuarioService) Deletar(ctx context.Context, p Principal, alvoID uuid.UUID) error {
	if p.Papel != PapelAdministrador && p.Usuario.ID != alvoID {
		return ErrForbidden
	}
	return s.repo.DeleteUsuario(ctx, alvoID)
}

// Secretarias devolve os vínculos de secretaria do alvo, sob a mesma
// regra de acesso do perfil.
func (s *UsuarioService) Secretarias(ctx context.Context, p Principal, alvoID uuid.UUID) ([]uuid.UUID, error) {
	if err := s.rbac.PodeAcessarUsuario(ctx, p, alvoID); err != nil {
		return nil, err
	}
	return s.repo.ListSecretariaIDsByUsuario(ctx, alvoID)
}
