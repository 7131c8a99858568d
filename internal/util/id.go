package util

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID gera um UUID v4.
func NewID() uuid.UUID {
	return uuid.New()
}

// Now devolve o instante atual em UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// NovoProtocolo gera protocolo legível para demandas: DM-AAAA-XXXXXX.
func NovoProtocolo() string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("DM-%d-%02X%02X%02X", time.Now().UTC().Year(), buf[0], buf[1], buf[2])
}
