package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/dto"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EntradaCola is one sale captured while the terminal was offline. The entry
// is owned by the device until the remote commit succeeds; it is removed from
// the queue only after that handoff.
type EntradaCola struct {
	LocalID   int64                     `json:"local_id"`
	OfflineID string                    `json:"offline_id"`
	Venta     dto.RegistrarVentaRequest `json:"venta"`
	CreadaAt  time.Time                 `json:"creada_at"`
}

// ColaOfflineRepository is the durable per-device queue, backed by Redis lists
// (append = RPUSH, list-all = LRANGE, delete-by-key = LREM). Sequence numbers
// from INCR preserve capture order across process restarts.
type ColaOfflineRepository interface {
	Encolar(ctx context.Context, negocioID uuid.UUID, dispositivoID string, venta dto.RegistrarVentaRequest) (*EntradaCola, error)
	Listar(ctx context.Context, negocioID uuid.UUID, dispositivoID string) ([]EntradaCola, error)
	Eliminar(ctx context.Context, negocioID uuid.UUID, dispositivoID string, entrada EntradaCola) error
	MarcarFallida(ctx context.Context, negocioID uuid.UUID, dispositivoID string, localID int64, motivo string) error
	Fallidas(ctx context.Context, negocioID uuid.UUID, dispositivoID string) (map[int64]string, error)
	Largo(ctx context.Context, negocioID uuid.UUID, dispositivoID string) (int64, error)
}

type colaOfflineRepo struct{ rdb *redis.Client }

func NewColaOfflineRepository(rdb *redis.Client) ColaOfflineRepository {
	return &colaOfflineRepo{rdb: rdb}
}

func claveCola(negocioID uuid.UUID, dispositivoID string) string {
	return fmt.Sprintf("cola:ventas:%s:%s", negocioID, dispositivoID)
}

func claveSeq(negocioID uuid.UUID, dispositivoID string) string {
	return fmt.Sprintf("cola:seq:%s:%s", negocioID, dispositivoID)
}

func claveFallidas(negocioID uuid.UUID, dispositivoID string) string {
	return fmt.Sprintf("cola:fallidas:%s:%s", negocioID, dispositivoID)
}

func (r *colaOfflineRepo) Encolar(ctx context.Context, negocioID uuid.UUID, dispositivoID string, venta dto.RegistrarVentaRequest) (*EntradaCola, error) {
	localID, err := r.rdb.Incr(ctx, claveSeq(negocioID, dispositivoID)).Result()
	if err != nil {
		return nil, err
	}

	// The offline id travels with the entry so replays deduplicate server-side.
	if venta.OfflineID == nil {
		oid := uuid.NewString()
		venta.OfflineID = &oid
	}

	entrada := EntradaCola{
		LocalID:   localID,
		OfflineID: *venta.OfflineID,
		Venta:     venta,
		CreadaAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(entrada)
	if err != nil {
		return nil, err
	}
	if err := r.rdb.RPush(ctx, claveCola(negocioID, dispositivoID), data).Err(); err != nil {
		return nil, err
	}
	return &entrada, nil
}

func (r *colaOfflineRepo) Listar(ctx context.Context, negocioID uuid.UUID, dispositivoID string) ([]EntradaCola, error) {
	raws, err := r.rdb.LRange(ctx, claveCola(negocioID, dispositivoID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	entradas := make([]EntradaCola, 0, len(raws))
	for _, raw := range raws {
		var e EntradaCola
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("cola offline: entrada corrupta: %w", err)
		}
		entradas = append(entradas, e)
	}
	return entradas, nil
}

func (r *colaOfflineRepo) Eliminar(ctx context.Context, negocioID uuid.UUID, dispositivoID string, entrada EntradaCola) error {
	data, err := json.Marshal(entrada)
	if err != nil {
		return err
	}
	if err := r.rdb.LRem(ctx, claveCola(negocioID, dispositivoID), 1, data).Err(); err != nil {
		return err
	}
	// A committed entry no longer needs its failure flag, if any.
	return r.rdb.HDel(ctx, claveFallidas(negocioID, dispositivoID), strconv.FormatInt(entrada.LocalID, 10)).Err()
}

func (r *colaOfflineRepo) MarcarFallida(ctx context.Context, negocioID uuid.UUID, dispositivoID string, localID int64, motivo string) error {
	return r.rdb.HSet(ctx, claveFallidas(negocioID, dispositivoID), strconv.FormatInt(localID, 10), motivo).Err()
}

func (r *colaOfflineRepo) Fallidas(ctx context.Context, negocioID uuid.UUID, dispositivoID string) (map[int64]string, error) {
	raw, err := r.rdb.HGetAll(ctx, claveFallidas(negocioID, dispositivoID)).Result()
	if err != nil {
		return nil, err
	}
	fallidas := make(map[int64]string, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		fallidas[id] = v
	}
	return fallidas, nil
}

func (r *colaOfflineRepo) Largo(ctx context.Context, negocioID uuid.UUID, dispositivoID string) (int64, error) {
	return r.rdb.LLen(ctx, claveCola(negocioID, dispositivoID)).Result()
}
