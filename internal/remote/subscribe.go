package remote

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/praticaeng/obrasflow/internal/store"
)

// canal de NOTIFY provisionado junto ao schema remoto (trigger por tabela).
const notifyChannel = "obrasflow_changes"

// Mudanca descreve um evento de alteração emitido pelo serviço remoto.
type Mudanca struct {
	Tabela string `json:"table"`
	Op     string `json:"op"` // INSERT | UPDATE | DELETE
	ID     string `json:"id"`
}

// Subscribe registra o callback para alterações na tabela informada. A
// escuta roda em goroutine própria até o contexto ser cancelado; erros de
// conexão encerram a escuta e são registrados, nunca propagados ao
// callback.
func (c *Client) Subscribe(ctx context.Context, table string, fn func(Mudanca)) error {
	if !store.ValidTable(table) {
		return ErrTabelaInvalida
	}

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return err
	}

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return err
	}

	go func() {
		defer conn.Release()
		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn().Err(err).Msg("remote: escuta de alterações encerrada")
				}
				return
			}

			var m Mudanca
			if err := json.Unmarshal([]byte(notification.Payload), &m); err != nil {
				log.Warn().Err(err).Str("payload", notification.Payload).
					Msg("remote: notificação malformada")
				continue
			}
			if m.Tabela == table {
				fn(m)
			}
		}
	}()

	return nil
}
