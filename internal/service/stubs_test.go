package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/dto"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/model"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository stubs. DB() returns nil so runTx executes the closure
// directly, letting the engines run without a database.

// ── productos ────────────────────────────────────────────────────────────────

type stubProductoRepo struct {
	mu        sync.Mutex
	productos map[uuid.UUID]*model.Producto

	// fallarLocks inyecta errores de serialización en las primeras N lecturas
	// bloqueantes, para probar el reintento del motor.
	fallarLocks int
}

func newStubProductoRepo(productos ...*model.Producto) *stubProductoRepo {
	s := &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
	for _, p := range productos {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		s.productos[p.ID] = p
	}
	return s
}

func (s *stubProductoRepo) DB() *gorm.DB { return nil }

func (s *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.productos[p.ID] = p
	return nil
}

func (s *stubProductoRepo) FindByID(_ context.Context, negocioID, id uuid.UUID) (*model.Producto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.productos[id]
	if !ok || p.NegocioID != negocioID {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *p
	return &copia, nil
}

func (s *stubProductoRepo) FindByBarcode(_ context.Context, negocioID uuid.UUID, barcode string) (*model.Producto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.productos {
		if p.NegocioID == negocioID && p.CodigoBarras == barcode && p.Activo {
			copia := *p
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductoRepo) List(_ context.Context, negocioID uuid.UUID, _ dto.ProductoFilter) ([]model.Producto, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Producto
	for _, p := range s.productos {
		if p.NegocioID == negocioID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, int64(len(out)), nil
}

func (s *stubProductoRepo) FindByIDForUpdateTx(_ *gorm.DB, negocioID, id uuid.UUID) (*model.Producto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fallarLocks > 0 {
		s.fallarLocks--
		return nil, &pgconn.PgError{Code: "40001"}
	}
	p, ok := s.productos[id]
	if !ok || p.NegocioID != negocioID {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *p
	return &copia, nil
}

func (s *stubProductoRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.productos[id]; ok {
		p.Stock += delta
	}
	return nil
}

func (s *stubProductoRepo) AjustarStock(_ context.Context, negocioID, id uuid.UUID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.productos[id]; ok && p.NegocioID == negocioID {
		p.Stock += delta
	}
	return nil
}

func (s *stubProductoRepo) stockDe(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.productos[id].Stock
}

// ── ventas ───────────────────────────────────────────────────────────────────

type stubVentaRepo struct {
	mu     sync.Mutex
	ventas map[uuid.UUID]*model.Venta

	// errores de un solo uso para simular fallas de lectura/escritura
	buscarOfflineErr error
	crearErr         error
}

func newStubVentaRepo() *stubVentaRepo {
	return &stubVentaRepo{ventas: make(map[uuid.UUID]*model.Venta)}
}

func (s *stubVentaRepo) DB() *gorm.DB { return nil }

func (s *stubVentaRepo) Create(_ context.Context, _ *gorm.DB, v *model.Venta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.crearErr != nil {
		err := s.crearErr
		s.crearErr = nil
		return err
	}
	v.ID = uuid.New()
	v.CreatedAt = time.Now().UTC()
	for i := range v.Items {
		v.Items[i].ID = uuid.New()
		v.Items[i].VentaID = v.ID
	}
	copia := *v
	s.ventas[v.ID] = &copia
	return nil
}

func (s *stubVentaRepo) FindByID(_ context.Context, negocioID, id uuid.UUID) (*model.Venta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.ventas[id]
	if !ok || v.NegocioID != negocioID {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *v
	return &copia, nil
}

func (s *stubVentaRepo) FindByOfflineID(_ context.Context, negocioID uuid.UUID, offlineID string) (*model.Venta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buscarOfflineErr != nil {
		err := s.buscarOfflineErr
		s.buscarOfflineErr = nil
		return nil, err
	}
	for _, v := range s.ventas {
		if v.NegocioID == negocioID && v.OfflineID != nil && *v.OfflineID == offlineID {
			copia := *v
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubVentaRepo) List(_ context.Context, negocioID uuid.UUID, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Venta
	for _, v := range s.ventas {
		if v.NegocioID != negocioID {
			continue
		}
		if filter.Estado != "" && filter.Estado != "all" && v.Estado != filter.Estado {
			continue
		}
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (s *stubVentaRepo) UpdateAnulacionTx(_ *gorm.DB, v *model.Venta) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	actual, ok := s.ventas[v.ID]
	if !ok || actual.Estado != model.VentaCompletada {
		return 0, nil
	}
	actual.Estado = v.Estado
	actual.MotivoAnulacion = v.MotivoAnulacion
	actual.AnuladaPor = v.AnuladaPor
	actual.AnuladaAt = v.AnuladaAt
	actual.ProductosNoRestaurados = v.ProductosNoRestaurados
	return 1, nil
}

func (s *stubVentaRepo) SumPorMetodoTx(_ *gorm.DB, negocioID, cierreCajaID uuid.UUID) (map[string]decimal.Decimal, error) {
	return s.SumPorMetodo(context.Background(), negocioID, cierreCajaID)
}

func (s *stubVentaRepo) SumPorMetodo(_ context.Context, negocioID, cierreCajaID uuid.UUID) (map[string]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sums := make(map[string]decimal.Decimal)
	for _, v := range s.ventas {
		if v.NegocioID != negocioID || v.CierreCajaID != cierreCajaID || v.Estado != model.VentaCompletada {
			continue
		}
		sums[v.MetodoPago] = sums[v.MetodoPago].Add(v.Total)
	}
	return sums, nil
}

// ── cierres de caja ──────────────────────────────────────────────────────────

type stubCajaRepo struct {
	mu      sync.Mutex
	cierres map[uuid.UUID]*model.CierreCaja

	// crearErr se consume en el próximo Create, para simular al índice
	// parcial rechazando una segunda caja abierta.
	crearErr error
	// alBloquear corre al tomar el lock de fila, antes de leer la sesión;
	// permite intercalar trabajo concurrente en el punto exacto del lock.
	alBloquear func()
}

func newStubCajaRepo(cierres ...*model.CierreCaja) *stubCajaRepo {
	s := &stubCajaRepo{cierres: make(map[uuid.UUID]*model.CierreCaja)}
	for _, c := range cierres {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		s.cierres[c.ID] = c
	}
	return s
}

func (s *stubCajaRepo) Create(_ context.Context, c *model.CierreCaja) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.crearErr != nil {
		err := s.crearErr
		s.crearErr = nil
		return err
	}
	c.ID = uuid.New()
	s.cierres[c.ID] = c
	return nil
}

func (s *stubCajaRepo) FindByID(_ context.Context, negocioID, id uuid.UUID) (*model.CierreCaja, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cierres[id]
	if !ok || c.NegocioID != negocioID {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *c
	return &copia, nil
}

func (s *stubCajaRepo) FindAbiertaPorUsuario(_ context.Context, negocioID, usuarioID uuid.UUID) (*model.CierreCaja, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cierres {
		if c.NegocioID == negocioID && c.UsuarioID == usuarioID && c.Estado == model.CajaAbierta {
			copia := *c
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCajaRepo) Update(_ context.Context, c *model.CierreCaja) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copia := *c
	s.cierres[c.ID] = &copia
	return nil
}

func (s *stubCajaRepo) Historial(_ context.Context, negocioID uuid.UUID, _, _ int) ([]model.CierreCaja, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CierreCaja
	for _, c := range s.cierres {
		if c.NegocioID == negocioID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubCajaRepo) FindByIDForUpdateTx(_ *gorm.DB, negocioID, id uuid.UUID) (*model.CierreCaja, error) {
	if s.alBloquear != nil {
		s.alBloquear()
	}
	return s.FindByID(context.Background(), negocioID, id)
}

func (s *stubCajaRepo) UpdateTx(_ *gorm.DB, c *model.CierreCaja) error {
	return s.Update(context.Background(), c)
}

// ── movimientos de stock ─────────────────────────────────────────────────────

type stubMovimientoRepo struct {
	mu          sync.Mutex
	movimientos []model.MovimientoStock
}

func newStubMovimientoRepo() *stubMovimientoRepo { return &stubMovimientoRepo{} }

func (s *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.New()
	s.movimientos = append(s.movimientos, *m)
	return nil
}

func (s *stubMovimientoRepo) ListByProducto(_ context.Context, negocioID, productoID uuid.UUID, _ int) ([]model.MovimientoStock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.MovimientoStock
	for _, m := range s.movimientos {
		if m.NegocioID == negocioID && m.ProductoID == productoID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubMovimientoRepo) deTipo(tipo string) []model.MovimientoStock {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.MovimientoStock
	for _, m := range s.movimientos {
		if m.Tipo == tipo {
			out = append(out, m)
		}
	}
	return out
}

// ── usuarios ─────────────────────────────────────────────────────────────────

type stubUsuarioRepo struct {
	mu       sync.Mutex
	usuarios map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo(usuarios ...*model.Usuario) *stubUsuarioRepo {
	s := &stubUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
	for _, u := range usuarios {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		s.usuarios[u.ID] = u
	}
	return s
}

func (s *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.usuarios[u.ID] = u
	return nil
}

func (s *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *u
	return &copia, nil
}

func (s *stubUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.usuarios {
		if u.Username == username && u.Activo {
			copia := *u
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── cola offline ─────────────────────────────────────────────────────────────

// stubColaRepo keeps the per-device queues in a slice, FIFO like the Redis
// list it replaces in production.
type stubColaRepo struct {
	mu       sync.Mutex
	seq      int64
	entradas []repository.EntradaCola
	fallidas map[int64]string
}

func newStubColaRepo() *stubColaRepo {
	return &stubColaRepo{fallidas: make(map[int64]string)}
}

func (s *stubColaRepo) Encolar(_ context.Context, _ uuid.UUID, _ string, venta dto.RegistrarVentaRequest) (*repository.EntradaCola, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if venta.OfflineID == nil {
		oid := uuid.NewString()
		venta.OfflineID = &oid
	}
	e := repository.EntradaCola{
		LocalID:   s.seq,
		OfflineID: *venta.OfflineID,
		Venta:     venta,
		CreadaAt:  time.Now().UTC(),
	}
	s.entradas = append(s.entradas, e)
	return &e, nil
}

func (s *stubColaRepo) Listar(_ context.Context, _ uuid.UUID, _ string) ([]repository.EntradaCola, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.EntradaCola, len(s.entradas))
	copy(out, s.entradas)
	return out, nil
}

func (s *stubColaRepo) Eliminar(_ context.Context, _ uuid.UUID, _ string, entrada repository.EntradaCola) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entradas {
		if e.LocalID == entrada.LocalID {
			s.entradas = append(s.entradas[:i], s.entradas[i+1:]...)
			break
		}
	}
	delete(s.fallidas, entrada.LocalID)
	return nil
}

func (s *stubColaRepo) MarcarFallida(_ context.Context, _ uuid.UUID, _ string, localID int64, motivo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallidas[localID] = motivo
	return nil
}

func (s *stubColaRepo) Fallidas(_ context.Context, _ uuid.UUID, _ string) (map[int64]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]string, len(s.fallidas))
	for k, v := range s.fallidas {
		out[k] = v
	}
	return out, nil
}

func (s *stubColaRepo) Largo(_ context.Context, _ uuid.UUID, _ string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.entradas)), nil
}
