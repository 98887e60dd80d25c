package service

import (
	"context"
	"errors"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/dto"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/model"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/repository"

	"github.com/google/uuid"
)

type ProductoService interface {
	Crear(ctx context.Context, ident Identidad, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	GetByID(ctx context.Context, ident Identidad, id uuid.UUID) (*dto.ProductoResponse, error)
	GetByBarcode(ctx context.Context, ident Identidad, barcode string) (*dto.ProductoResponse, error)
	List(ctx context.Context, ident Identidad, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	// AjustarStock applies a manual correction (merma, recount, damage) and
	// records it in the stock ledger. Sales never go through this path.
	AjustarStock(ctx context.Context, ident Identidad, id uuid.UUID, req dto.AjustarStockRequest) (*dto.ProductoResponse, error)
}

type productoService struct {
	repo        repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
}

func NewProductoService(repo repository.ProductoRepository, movimientos repository.MovimientoStockRepository) ProductoService {
	return &productoService{repo: repo, movimientos: movimientos}
}

func (s *productoService) Crear(ctx context.Context, ident Identidad, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	p := &model.Producto{
		NegocioID:    ident.NegocioID,
		Nombre:       req.Nombre,
		Talla:        req.Talla,
		Color:        req.Color,
		CodigoBarras: req.CodigoBarras,
		PrecioVenta:  req.PrecioVenta.Round(2),
		PrecioCosto:  req.PrecioCosto,
		Stock:        req.Stock,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return productoToResponse(p), nil
}

func (s *productoService) GetByID(ctx context.Context, ident Identidad, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, ident.NegocioID, id)
	if err != nil {
		return nil, &ErrProductoInexistente{ProductoID: id.String()}
	}
	return productoToResponse(p), nil
}

func (s *productoService) GetByBarcode(ctx context.Context, ident Identidad, barcode string) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByBarcode(ctx, ident.NegocioID, barcode)
	if err != nil {
		return nil, &ErrProductoInexistente{ProductoID: barcode}
	}
	return productoToResponse(p), nil
}

func (s *productoService) List(ctx context.Context, ident Identidad, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	productos, total, err := s.repo.List(ctx, ident.NegocioID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		items = append(items, *productoToResponse(&productos[i]))
	}
	return &dto.ProductoListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *productoService) AjustarStock(ctx context.Context, ident Identidad, id uuid.UUID, req dto.AjustarStockRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, ident.NegocioID, id)
	if err != nil || !p.Activo {
		return nil, &ErrProductoInexistente{ProductoID: id.String()}
	}
	if p.Stock+req.Delta < 0 {
		return nil, errors.New("el ajuste dejaría el stock en negativo")
	}

	if err := s.repo.AjustarStock(ctx, ident.NegocioID, id, req.Delta); err != nil {
		return nil, err
	}
	mov := &model.MovimientoStock{
		NegocioID:     ident.NegocioID,
		ProductoID:    id,
		Tipo:          "ajuste_manual",
		Cantidad:      req.Delta,
		StockAnterior: p.Stock,
		StockNuevo:    p.Stock + req.Delta,
		Motivo:        req.Motivo,
	}
	if err := s.movimientos.CreateTx(s.repo.DB(), mov); err != nil {
		return nil, err
	}

	p.Stock += req.Delta
	return productoToResponse(p), nil
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:           p.ID.String(),
		Nombre:       p.Nombre,
		Talla:        p.Talla,
		Color:        p.Color,
		CodigoBarras: p.CodigoBarras,
		PrecioVenta:  p.PrecioVenta,
		PrecioCosto:  p.PrecioCosto,
		Stock:        p.Stock,
		Activo:       p.Activo,
	}
}
