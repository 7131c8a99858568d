package storage

import (
	"context"
	"errors"
)

// NoopUploader substitui o S3 quando S3_ENDPOINT está ausente; qualquer
// tentativa de anexar foto devolve erro em vez de falhar silenciosamente.
type NoopUploader struct{}

// Upload sempre retorna erro, sinalizando que anexos estão desabilitados.
func (NoopUploader) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	return nil, errors.New("storage: uploader não configurado")
}
