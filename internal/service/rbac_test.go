package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/demandas/internal/repo"
)

type stubRBACRepo struct {
	usuarios    map[uuid.UUID]repo.Usuario
	secretarias map[uuid.UUID][]uuid.UUID
}

func (s *stubRBACRepo) GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error) {
	if u, ok := s.usuarios[id]; ok {
		return u, nil
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (s *stubRBACRepo) ListSecretariaIDsByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]uuid.UUID, error) {
	return s.secretarias[usuarioID], nil
}

func TestResolvePapelPrioridade(t *testing.T) {
	casos := []struct {
		nivel    repo.NivelAcesso
		esperado Papel
	}{
		{repo.NivelAcesso{}, PapelMunicipe},
		{repo.NivelAcesso{Municipe: true}, PapelMunicipe},
		{repo.NivelAcesso{Municipe: true, Operador: true}, PapelOperador},
		{repo.NivelAcesso{Operador: true, Secretario: true}, PapelSecretario},
		{repo.NivelAcesso{Municipe: true, Secretario: true, Administrador: true}, PapelAdministrador},
	}

	for _, c := range casos {
		assert.Equal(t, c.esperado, ResolvePapel(c.nivel), "nivel %+v", c.nivel)
	}
}

func TestPrincipalCarregaEscopo(t *testing.T) {
	secretariaID := uuid.New()
	secretario := repo.Usuario{ID: uuid.New(), NivelAcesso: repo.NivelAcesso{Secretario: true}}
	municipe := repo.Usuario{ID: uuid.New(), NivelAcesso: repo.NivelAcesso{Municipe: true}}

	svc := NewRBACService(&stubRBACRepo{
		usuarios: map[uuid.UUID]repo.Usuario{
			secretario.ID: secretario,
			municipe.ID:   municipe,
		},
		secretarias: map[uuid.UUID][]uuid.UUID{
			secretario.ID: {secretariaID},
		},
	})

	p, err := svc.Principal(context.Background(), secretario.ID)
	require.NoError(t, err)
	assert.Equal(t, PapelSecretario, p.Papel)
	assert.Equal(t, []uuid.UUID{secretariaID}, p.Secretarias)

	// munícipe não carrega escopo de secretarias
	p, err = svc.Principal(context.Background(), municipe.ID)
	require.NoError(t, err)
	assert.Equal(t, PapelMunicipe, p.Papel)
	assert.Nil(t, p.Secretarias)
}

func TestPodeAcessarUsuario(t *testing.T) {
	secA := uuid.New()
	secB := uuid.New()
	secC := uuid.New()

	alvoNaSecA := uuid.New()
	alvoNaSecC := uuid.New()

	stub := &stubRBACRepo{
		secretarias: map[uuid.UUID][]uuid.UUID{
			alvoNaSecA: {secA},
			alvoNaSecC: {secC},
		},
	}
	svc := NewRBACService(stub)
	ctx := context.Background()

	admin := Principal{Usuario: repo.Usuario{ID: uuid.New()}, Papel: PapelAdministrador}
	secretario := Principal{
		Usuario:     repo.Usuario{ID: uuid.New()},
		Papel:       PapelSecretario,
		Secretarias: []uuid.UUID{secA, secB},
	}
	operador := Principal{Usuario: repo.Usuario{ID: uuid.New()}, Papel: PapelOperador}
	municipe := Principal{Usuario: repo.Usuario{ID: uuid.New()}, Papel: PapelMunicipe}

	// administrador: irrestrito
	assert.NoError(t, svc.PodeAcessarUsuario(ctx, admin, alvoNaSecC))

	// secretario: interseção de secretarias decide
	assert.NoError(t, svc.PodeAcessarUsuario(ctx, secretario, alvoNaSecA))
	assert.ErrorIs(t, svc.PodeAcessarUsuario(ctx, secretario, alvoNaSecC), ErrForbidden)
	assert.NoError(t, svc.PodeAcessarUsuario(ctx, secretario, secretario.Usuario.ID))

	// operador e munícipe: apenas o próprio registro
	assert.NoError(t, svc.PodeAcessarUsuario(ctx, operador, operador.Usuario.ID))
	assert.ErrorIs(t, svc.PodeAcessarUsuario(ctx, operador, alvoNaSecA), ErrForbidden)
	assert.NoError(t, svc.PodeAcessarUsuario(ctx, municipe, municipe.Usuario.ID))
	assert.ErrorIs(t, svc.PodeAcessarUsuario(ctx, municipe, alvoNaSecA), ErrForbidden)
}

func TestPodeAcessarDemanda(t *testing.T) {
	secA := uuid.New()
	secB := uuid.New()
	municipeID := uuid.New()

	demanda := repo.Demanda{ID: uuid.New(), SecretariaID: secA, MunicipeID: municipeID}
	svc := NewRBACService(&stubRBACRepo{})

	admin := Principal{Usuario: repo.Usuario{ID: uuid.New()}, Papel: PapelAdministrador}
	equipeDentro := Principal{Usuario: repo.Usuario{ID: uuid.New()}, Papel: PapelOperador, Secretarias: []uuid.UUID{secA}}
	equipeFora := Principal{Usuario: repo.Usuario{ID: uuid.New()}, Papel: PapelSecretario, Secretarias: []uuid.UUID{secB}}
	dono := Principal{Usuario: repo.Usuario{ID: municipeID}, Papel: PapelMunicipe}
	outroMunicipe := Principal{Usuario: repo.Usuario{ID: uuid.New()}, Papel: PapelMunicipe}

	assert.NoError(t, svc.PodeAcessarDemanda(admin, demanda))
	assert.NoError(t, svc.PodeAcessarDemanda(equipeDentro, demanda))
	assert.ErrorIs(t, svc.PodeAcessarDemanda(equipeFora, demanda), ErrForbidden)
	assert.NoError(t, svc.PodeAcessarDemanda(dono, demanda))
	assert.ErrorIs(t, svc.PodeAcessarDemanda(outroMunicipe, demanda), ErrForbidden)
}

func TestPodeCriarUsuario(t *testing.T) {
	svc := NewRBACService(&stubRBACRepo{})

	assert.ErrorIs(t, svc.PodeCriarUsuario(Principal{Papel: PapelMunicipe}), ErrForbidden)
	assert.NoError(t, svc.PodeCriarUsuario(Principal{Papel: PapelOperador}))
	assert.NoError(t, svc.PodeCriarUsuario(Principal{Papel: PapelSecretario}))
	assert.NoError(t, svc.PodeCriarUsuario(Principal{Papel: PapelAdministrador}))
}
