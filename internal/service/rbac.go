package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gestaozabele/demandas/internal/repo"
)

var (
	// ErrForbidden indica ausência de permissão para o alvo.
	ErrForbidden = errors.New("acesso negado")
)

// Papel é o nível de acesso efetivo do usuário, resolvido uma única vez
// a partir dos indicadores de nivel_acesso.
type Papel int

const (
	PapelMunicipe Papel = iota
	PapelOperador
	PapelSecretario
	PapelAdministrador
)

func (p Papel) String() string {
	switch p {
	case PapelAdministrador:
		return "ADMINISTRADOR"
	case PapelSecretario:
		return "SECRETARIO"
	case PapelOperador:
		return "OPERADOR"
	default:
		return "MUNICIPE"
	}
}

// ResolvePapel aplica a ordem de prioridade sobre os indicadores:
// administrador > secretario > operador > municipe. Registro sem nenhum
// indicador ativo é tratado como munícipe.
func ResolvePapel(n repo.NivelAcesso) Papel {
	switch {
	case n.Administrador:
		return PapelAdministrador
	case n.Secretario:
		return PapelSecretario
	case n.Operador:
		return PapelOperador
	default:
		return PapelMunicipe
	}
}

// Principal é o usuário autenticado com papel resolvido e escopo de
// secretarias carregado.
type Principal struct {
	Usuario     repo.Usuario
	Papel       Papel
	Secretarias []uuid.UUID
}

// rbacRepository limita o acesso a dados do serviço de autorização.
type rbacRepository interface {
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	ListSecretariaIDsByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]uuid.UUID, error)
}

// RBACService resolve principals e decide acesso por papel e escopo.
type RBACService struct {
	repo rbacRepository
}

// NewRBACService cria nova instância.
func NewRBACService(r rbacRepository) *RBACService {
	return &RBACService{repo: r}
}

// Principal carrega o usuário autenticado e resolve papel + escopo.
func (s *RBACService) Principal(ctx context.Context, usuarioID uuid.UUID) (Principal, error) {
	user, err := s.repo.GetUsuarioByID(ctx, usuarioID)
	if err != nil {
		return Principal{}, err
	}

	principal := Principal{Usuario: user, Papel: ResolvePapel(user.NivelAcesso)}
	if principal.Papel == PapelSecretario || principal.Papel == PapelOperador {
		if principal.Secretarias, err = s.repo.ListSecretariaIDsByUsuario(ctx, usuarioID); err != nil {
			return Principal{}, err
		}
	}
	return principal, nil
}

// PodeAcessarUsuario decide leitura/escrita sobre o registro de um usuário:
//   - administrador: irrestrito;
//   - secretario: o conjunto de secretarias do alvo precisa interceptar o
//     próprio (interseção não vazia);
//   - operador e municipe: apenas o próprio registro.
func (s *RBACService) PodeAcessarUsuario(ctx context.Context, p Principal, alvoID uuid.UUID) error {
	switch p.Papel {
	case PapelAdministrador:
		return nil
	case PapelSecretario:
		if p.Usuario.ID == alvoID {
			return nil
		}
		alvoSecretarias, err := s.repo.ListSecretariaIDsByUsuario(ctx, alvoID)
		if err != nil {
			return err
		}
		if intersecta(p.Secretarias, alvoSecretarias) {
			return nil
		}
		return ErrForbidden
	default:
		if p.Usuario.ID == alvoID {
			return nil
		}
		return ErrForbidden
	}
}

// PodeAcessarDemanda decide acesso a uma demanda: administrador tudo;
// secretario e operador demandas das próprias secretarias; municipe
// apenas as que abriu.
func (s *RBACService) PodeAcessarDemanda(p Principal, d repo.Demanda) error {
	switch p.Papel {
	case PapelAdministrador:
		return nil
	case PapelSecretario, PapelOperador:
		for _, id := range p.Secretarias {
			if id == d.SecretariaID {
				return nil
			}
		}
		return ErrForbidden
	default:
		if p.Usuario.ID == d.MunicipeID {
			return nil
		}
		return ErrForbidden
	}
}

// PodeCriarUsuario veda criação de usuários por munícipes.
func (s *RBACService) PodeCriarUsuario(p Principal) error {
	if p.Papel == PapelMunicipe {
		return ErrForbidden
	}
	return nil
}

func intersecta(a, b []uuid.UUID) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
