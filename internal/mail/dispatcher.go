package mail

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	tentativasMax = 3
	envioTimeout  = 20 * time.Second
)

// Dispatcher desacopla o envio de e-mail do ciclo requisição/resposta:
// mensagens entram numa fila limitada e um worker as entrega com
// tentativas limitadas e backoff. Falha definitiva é logada, nunca
// propagada ao chamador.
type Dispatcher struct {
	sender Sender
	fila   chan Mensagem
	done   chan struct{}
}

// NewDispatcher cria o despachante com fila de tamanho fixo.
func NewDispatcher(sender Sender, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Dispatcher{
		sender: sender,
		fila:   make(chan Mensagem, buffer),
		done:   make(chan struct{}),
	}
}

// Start inicia o worker; encerra quando o contexto é cancelado e a fila
// esvazia.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.done)
		for {
			select {
			case msg := <-d.fila:
				d.entregar(msg)
			case <-ctx.Done():
				// drena o que restou antes de encerrar
				for {
					select {
					case msg := <-d.fila:
						d.entregar(msg)
					default:
						return
					}
				}
			}
		}
	}()
}

// Wait bloqueia até o worker terminar (após cancelamento do contexto).
func (d *Dispatcher) Wait() {
	<-d.done
}

// Enqueue agenda o envio sem bloquear; fila cheia descarta e loga.
func (d *Dispatcher) Enqueue(msg Mensagem) {
	select {
	case d.fila <- msg:
	default:
		log.Error().Str("para", msg.Para).Str("template", msg.Template).
			Msg("fila de e-mail cheia, mensagem descartada")
	}
}

func (d *Dispatcher) entregar(msg Mensagem) {
	backoff := time.Second
	for tentativa := 1; tentativa <= tentativasMax; tentativa++ {
		ctx, cancel := context.WithTimeout(context.Background(), envioTimeout)
		err := d.sender.Send(ctx, msg)
		cancel()
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("para", msg.Para).Int("tentativa", tentativa).
			Msg("falha no envio de e-mail")
		if tentativa < tentativasMax {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	log.Error().Str("para", msg.Para).Str("template", msg.Template).
		Msg("e-mail descartado após esgotar tentativas")
}
