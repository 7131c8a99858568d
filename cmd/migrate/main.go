package main

import (
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/demandas/internal/config"
	"github.com/gestaozabele/demandas/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	if err := db.Migrate(cfg.DBDSN); err != nil {
		log.Fatal().Err(err).Msg("falha ao migrar banco")
	}

	log.Info().Msg("migrações aplicadas")
}
