package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/demandas/internal/repo"
)

// stubUsuarioRepo atende usuarioRepository e rbacRepository ao mesmo tempo.
type stubUsuarioRepo struct {
	usuarios    map[uuid.UUID]*repo.Usuario
	secretarias map[uuid.UUID][]uuid.UUID

	ultimoFilter *repo.UsuarioFilter
	ultimoInsert *repo.InsertUsuarioParams
	ultimoUpdate *repo.UpdateUsuarioParams
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{
		usuarios:    map[uuid.UUID]*repo.Usuario{},
		secretarias: map[uuid.UUID][]uuid.UUID{},
	}
}

func (s *stubUsuarioRepo) GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error) {
	if u, ok := s.usuarios[id]; ok {
		return *u, nil
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (s *stubUsuarioRepo) ListUsuarios(ctx context.Context, filter repo.UsuarioFilter) ([]repo.Usuario, error) {
	s.ultimoFilter = &filter
	var out []repo.Usuario
	for _, u := range s.usuarios {
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubUsuarioRepo) InsertUsuario(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error) {
	s.ultimoInsert = &arg
	user := repo.Usuario{
		ID:          arg.ID,
		Nome:        arg.Nome,
		Email:       arg.Email,
		NivelAcesso: arg.NivelAcesso,
		GrupoID:     arg.GrupoID,
		Ativo:       true,
	}
	s.usuarios[user.ID] = &user
	return user, nil
}

func (s *stubUsuarioRepo) UpdateUsuario(ctx context.Context, arg repo.UpdateUsuarioParams) (repo.Usuario, error) {
	s.ultimoUpdate = &arg
	u, ok := s.usuarios[arg.ID]
	if !ok {
		return repo.Usuario{}, repo.ErrNotFound
	}
	if arg.Nome != nil {
		u.Nome = *arg.Nome
	}
	if arg.NivelAcesso != nil {
		u.NivelAcesso = *arg.NivelAcesso
	}
	return *u, nil
}

func (s *stubUsuarioRepo) DeleteUsuario(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.usuarios[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.usuarios, id)
	return nil
}

func (s *stubUsuarioRepo) SetSecretariasDoUsuario(ctx context.Context, usuarioID uuid.UUID, secretariaIDs []uuid.UUID) error {
	s.secretarias[usuarioID] = secretariaIDs
	return nil
}

func (s *stubUsuarioRepo) ListSecretariaIDsByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]uuid.UUID, error) {
	return s.secretarias[usuarioID], nil
}

func seedPerfil(stub *stubUsuarioRepo, nivel repo.NivelAcesso, secretarias ...uuid.UUID) Principal {
	user := &repo.Usuario{ID: uuid.New(), Nome: "Perfil de Teste", Email: uuid.NewString() + "@example.com", NivelAcesso: nivel, Ativo: true}
	stub.usuarios[user.ID] = user
	if len(secretarias) > 0 {
		stub.secretarias[user.ID] = secretarias
	}
	return Principal{Usuario: *user, Papel: ResolvePapel(nivel), Secretarias: secretarias}
}

func TestListAplicaEscopoImplicito(t *testing.T) {
	stub := newStubUsuarioRepo()
	svc := NewUsuarioService(stub, NewRBACService(stub))
	ctx := context.Background()

	secretariaID := uuid.New()
	admin := seedPerfil(stub, repo.NivelAcesso{Administrador: true})
	secretario := seedPerfil(stub, repo.NivelAcesso{Secretario: true}, secretariaID)
	municipe := seedPerfil(stub, repo.NivelAcesso{Municipe: true})

	_, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, stub.ultimoFilter.SecretariaIDs)

	_, err = svc.List(ctx, secretario)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{secretariaID}, stub.ultimoFilter.SecretariaIDs)

	// secretário sem vínculo algum enxerga lista vazia, não tudo
	semVinculo := seedPerfil(stub, repo.NivelAcesso{Secretario: true})
	out, err := svc.List(ctx, semVinculo)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = svc.List(ctx, municipe)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, municipe.Usuario.ID, out[0].ID)
}

func TestCriarDescartaCamposPrivilegiadosDeNaoAdmin(t *testing.T) {
	stub := newStubUsuarioRepo()
	svc := NewUsuarioService(stub, NewRBACService(stub))
	ctx := context.Background()

	operador := seedPerfil(stub, repo.NivelAcesso{Operador: true})
	grupoID := uuid.New()

	user, err := svc.Criar(ctx, operador, CriarUsuarioParams{
		Nome:        "Novo Usuário",
		Email:       "novo@example.com",
		Senha:       "senha12345",
		NivelAcesso: &repo.NivelAcesso{Administrador: true},
		GrupoID:     &grupoID,
		Secretarias: []uuid.UUID{uuid.New()},
	})
	require.NoError(t, err)

	// escalada silenciosamente descartada
	assert.Equal(t, repo.NivelAcesso{Municipe: true}, user.NivelAcesso)
	assert.Nil(t, stub.ultimoInsert.GrupoID)
	assert.Empty(t, stub.secretarias[user.ID])
}

func TestCriarAdminDefineCamposPrivilegiados(t *testing.T) {
	stub := newStubUsuarioRepo()
	svc := NewUsuarioService(stub, NewRBACService(stub))
	ctx := context.Background()

	admin := seedPerfil(stub, repo.NivelAcesso{Administrador: true})
	secretariaID := uuid.New()

	user, err := svc.Criar(ctx, admin, CriarUsuarioParams{
		Nome:        "Secretário Novo",
		Email:       "sec@example.com",
		Senha:       "senha12345",
		NivelAcesso: &repo.NivelAcesso{Secretario: true},
		Secretarias: []uuid.UUID{secretariaID},
	})
	require.NoError(t, err)

	assert.Equal(t, repo.NivelAcesso{Secretario: true}, user.NivelAcesso)
	assert.Equal(t, []uuid.UUID{secretariaID}, stub.secretarias[user.ID])
}

func TestCriarVedadoAMunicipe(t *testing.T) {
	stub := newStubUsuarioRepo()
	svc := NewUsuarioService(stub, NewRBACService(stub))

	municipe := seedPerfil(stub, repo.NivelAcesso{Municipe: true})
	_, err := svc.Criar(context.Background(), municipe, CriarUsuarioParams{
		Nome:  "Novo",
		Email: "novo@example.com",
		Senha: "senha12345",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAtualizarStripParaNaoAdmin(t *testing.T) {
	stub := newStubUsuarioRepo()
	svc := NewUsuarioService(stub, NewRBACService(stub))
	ctx := context.Background()

	municipe := seedPerfil(stub, repo.NivelAcesso{Municipe: true})
	nome := "Nome Atualizado"

	user, err := svc.Atualizar(ctx, municipe, municipe.Usuario.ID, AtualizarUsuarioParams{
		Nome:        &nome,
		NivelAcesso: &repo.NivelAcesso{Administrador: true},
	})
	require.NoError(t, err)

	assert.Equal(t, nome, user.Nome)
	assert.Equal(t, repo.NivelAcesso{Municipe: true}, user.NivelAcesso)
	assert.Nil(t, stub.ultimoUpdate.NivelAcesso)
}

func TestAtualizarForaDoEscopo(t *testing.T) {
	stub := newStubUsuarioRepo()
	svc := NewUsuarioService(stub, NewRBACService(stub))

	municipe := seedPerfil(stub, repo.NivelAcesso{Municipe: true})
	outro := seedPerfil(stub, repo.NivelAcesso{Municipe: true})

	nome := "Invasão"
	_, err := svc.Atualizar(context.Background(), municipe, outro.Usuario.ID, AtualizarUsuarioParams{Nome: &nome})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeletarRegras(t *testing.T) {
	stub := newStubUsuarioRepo()
	svc := NewUsuarioService(stub, NewRBACService(stub))
	ctx := context.Background()

	admin := seedPerfil(stub, repo.NivelAcesso{Administrador: true})
	municipe := seedPerfil(stub, repo.NivelAcesso{Municipe: true})
	outro := seedPerfil(stub, repo.NivelAcesso{Municipe: true})

	assert.ErrorIs(t, svc.Deletar(ctx, municipe, outro.Usuario.ID), ErrForbidden)
	assert.NoError(t, svc.Deletar(ctx, municipe, municipe.Usuario.ID))
	assert.NoError(t, svc.Deletar(ctx, admin, outro.Usuario.ID))
}
