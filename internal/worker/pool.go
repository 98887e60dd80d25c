package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	colaJobs = "jobs:pos"
	colaDLQ  = "jobs:pos:dlq"

	maxIntentos = 3
)

// Job types.
const (
	JobReporteCierre = "cierre_reporte"
	JobDrenaje       = "drenaje_cola"
)

// Job is the envelope pushed onto the Redis job queue.
type Job struct {
	Tipo     string          `json:"tipo"`
	Payload  json.RawMessage `json:"payload"`
	Intentos int             `json:"intentos"`
}

// Handler processes one job payload. A returned error requeues the job until
// maxIntentos, then it lands on the dead-letter queue.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Pool consumes the job queue with N workers blocking on BRPOP. Jobs are
// at-least-once: handlers must be idempotent.
type Pool struct {
	rdb      *redis.Client
	size     int
	handlers map[string]Handler
	wg       sync.WaitGroup
}

func NewPool(rdb *redis.Client, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		rdb:      rdb,
		size:     size,
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a job type. Must be called before Start.
func (p *Pool) Register(tipo string, h Handler) {
	p.handlers[tipo] = h
}

// Start launches the workers. They stop when ctx is cancelled; Wait blocks
// until all in-flight jobs finish.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	log.Info().Int("workers", p.size).Msg("worker pool iniciado")
}

func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.rdb.BRPop(ctx, 5*time.Second, colaJobs).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Int("worker", id).Msg("error leyendo cola de jobs")
			time.Sleep(time.Second)
			continue
		}
		// BRPop returns [key, value].
		if len(res) < 2 {
			continue
		}
		p.procesar(ctx, id, []byte(res[1]))
	}
}

func (p *Pool) procesar(ctx context.Context, workerID int, raw []byte) {
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		log.Error().Err(err).Msg("job corrupto, enviado a DLQ")
		p.rdb.LPush(ctx, colaDLQ, raw)
		return
	}

	h, ok := p.handlers[job.Tipo]
	if !ok {
		log.Error().Str("tipo", job.Tipo).Msg("job sin handler, enviado a DLQ")
		p.rdb.LPush(ctx, colaDLQ, raw)
		return
	}

	if err := h(ctx, job.Payload); err != nil {
		job.Intentos++
		log.Warn().Err(err).
			Str("tipo", job.Tipo).
			Int("intentos", job.Intentos).
			Int("worker", workerID).
			Msg("job falló")

		data, _ := json.Marshal(job)
		if job.Intentos >= maxIntentos {
			p.rdb.LPush(ctx, colaDLQ, data)
			return
		}
		p.rdb.LPush(ctx, colaJobs, data)
		return
	}

	log.Debug().Str("tipo", job.Tipo).Int("worker", workerID).Msg("job procesado")
}

// Dispatcher enqueues jobs for the pool.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

func (d *Dispatcher) encolar(ctx context.Context, tipo string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job, err := json.Marshal(Job{Tipo: tipo, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, colaJobs, job).Err()
}
