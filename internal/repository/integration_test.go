package repository

import (
	"context"
	"testing"
	"time"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/dto"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/infra"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// Levanta Postgres real, aplica las migraciones y ejercita los repos contra el
// esquema verdadero (índices parciales y CHECKs incluidos).
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("integración: requiere docker")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("tienda"),
		tcpostgres.WithUsername("tienda"),
		tcpostgres.WithPassword("tienda"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := infra.NewDatabase(dsn, "file://../../migrations")
	require.NoError(t, err)
	return db
}

func TestIntegracion_ProductoYStock(t *testing.T) {
	db := setupPostgres(t)
	repo := NewProductoRepository(db)
	ctx := context.Background()
	negocioID := uuid.New()

	p := &model.Producto{
		NegocioID:    negocioID,
		Nombre:       "Camiseta integración",
		CodigoBarras: "INT-0001",
		PrecioVenta:  decimal.NewFromInt(150),
		Stock:        10,
		Activo:       true,
	}
	require.NoError(t, repo.Create(ctx, p))

	// Otro negocio no ve el producto.
	_, err := repo.FindByID(ctx, uuid.New(), p.ID)
	assert.Error(t, err)

	encontrado, err := repo.FindByBarcode(ctx, negocioID, "INT-0001")
	require.NoError(t, err)
	assert.Equal(t, p.ID, encontrado.ID)

	require.NoError(t, repo.AjustarStock(ctx, negocioID, p.ID, -4))
	encontrado, err = repo.FindByID(ctx, negocioID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, encontrado.Stock)

	// El CHECK de la migración impide stock negativo aunque el servicio falle.
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.UpdateStockTx(tx, p.ID, -100)
	})
	assert.Error(t, err)
}

func TestIntegracion_CajaUnicaAbiertaPorOperador(t *testing.T) {
	db := setupPostgres(t)
	usuarios := NewUsuarioRepository(db)
	cajas := NewCajaRepository(db)
	ctx := context.Background()
	negocioID := uuid.New()

	u := &model.Usuario{NegocioID: negocioID, Username: "cajera1", Nombre: "Cajera", PasswordHash: "x", Rol: model.RolCajero, Activo: true}
	require.NoError(t, usuarios.Create(ctx, u))

	primera := &model.CierreCaja{
		NegocioID: negocioID, UsuarioID: u.ID,
		MontoApertura: decimal.NewFromInt(1000), Estado: model.CajaAbierta, AbiertaAt: time.Now().UTC(),
	}
	require.NoError(t, cajas.Create(ctx, primera))

	// El índice parcial rechaza la segunda caja abierta del mismo operador.
	segunda := &model.CierreCaja{
		NegocioID: negocioID, UsuarioID: u.ID,
		MontoApertura: decimal.NewFromInt(500), Estado: model.CajaAbierta, AbiertaAt: time.Now().UTC(),
	}
	assert.Error(t, cajas.Create(ctx, segunda))

	// Cerrada la primera, abrir de nuevo sí procede.
	ahora := time.Now().UTC()
	contado := decimal.NewFromInt(1000)
	cero := decimal.Zero
	primera.Estado = model.CajaCerrada
	primera.MontoContado = &contado
	primera.Diferencia = &cero
	primera.CerradaAt = &ahora
	require.NoError(t, cajas.Update(ctx, primera))
	assert.NoError(t, cajas.Create(ctx, segunda))
}

func TestIntegracion_VentaConItemsYTotalesPorMetodo(t *testing.T) {
	db := setupPostgres(t)
	usuarios := NewUsuarioRepository(db)
	cajas := NewCajaRepository(db)
	productos := NewProductoRepository(db)
	ventas := NewVentaRepository(db)
	ctx := context.Background()
	negocioID := uuid.New()

	u := &model.Usuario{NegocioID: negocioID, Username: "cajera2", Nombre: "Cajera", PasswordHash: "x", Rol: model.RolCajero, Activo: true}
	require.NoError(t, usuarios.Create(ctx, u))

	cierre := &model.CierreCaja{NegocioID: negocioID, UsuarioID: u.ID, MontoApertura: decimal.NewFromInt(500), Estado: model.CajaAbierta, AbiertaAt: time.Now().UTC()}
	require.NoError(t, cajas.Create(ctx, cierre))

	p := &model.Producto{NegocioID: negocioID, Nombre: "Jean", CodigoBarras: "INT-0002", PrecioVenta: decimal.NewFromInt(300), Stock: 20, Activo: true}
	require.NoError(t, productos.Create(ctx, p))

	oid := uuid.NewString()
	venta := &model.Venta{
		NegocioID: negocioID, CierreCajaID: cierre.ID, UsuarioID: u.ID,
		Subtotal: decimal.NewFromInt(600), Descuento: decimal.Zero,
		Impuesto: decimal.Zero, Propina: decimal.Zero, Total: decimal.NewFromInt(600),
		MetodoPago: model.MetodoEfectivo, Estado: model.VentaCompletada, OfflineID: &oid,
		Items: []model.VentaItem{{
			ProductoID: p.ID, NombreProducto: p.Nombre, Cantidad: 2,
			PrecioUnitario: decimal.NewFromInt(300), Subtotal: decimal.NewFromInt(600),
		}},
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ventas.Create(ctx, tx, venta); err != nil {
			return err
		}
		return productos.UpdateStockTx(tx, p.ID, -2)
	})
	require.NoError(t, err)

	// Los ítems se precargan y el snapshot de nombre/precio persiste.
	leida, err := ventas.FindByID(ctx, negocioID, venta.ID)
	require.NoError(t, err)
	require.Len(t, leida.Items, 1)
	assert.Equal(t, "Jean", leida.Items[0].NombreProducto)

	porOffline, err := ventas.FindByOfflineID(ctx, negocioID, oid)
	require.NoError(t, err)
	assert.Equal(t, venta.ID, porOffline.ID)

	sums, err := ventas.SumPorMetodo(ctx, negocioID, cierre.ID)
	require.NoError(t, err)
	assert.True(t, sums[model.MetodoEfectivo].Equal(decimal.NewFromInt(600)))

	// El índice único parcial rechaza un replay con el mismo offline_id.
	duplicada := *venta
	duplicada.ID = uuid.Nil
	duplicada.Items = nil
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ventas.Create(ctx, tx, &duplicada)
	})
	assert.Error(t, err)

	lista, total, err := ventas.List(ctx, negocioID, dto.VentaFilter{Page: 1, Limit: 10, Estado: model.VentaCompletada})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, lista, 1)
}

func TestIntegracion_CierreEsperaLaVentaEnVuelo(t *testing.T) {
	db := setupPostgres(t)
	usuarios := NewUsuarioRepository(db)
	cajas := NewCajaRepository(db)
	ventas := NewVentaRepository(db)
	ctx := context.Background()
	negocioID := uuid.New()

	u := &model.Usuario{NegocioID: negocioID, Username: "cajera3", Nombre: "Cajera", PasswordHash: "x", Rol: model.RolCajero, Activo: true}
	require.NoError(t, usuarios.Create(ctx, u))

	cierre := &model.CierreCaja{NegocioID: negocioID, UsuarioID: u.ID, MontoApertura: decimal.NewFromInt(500), Estado: model.CajaAbierta, AbiertaAt: time.Now().UTC()}
	require.NoError(t, cajas.Create(ctx, cierre))

	// La venta en vuelo toma primero el lock de la sesión, como lo hace el
	// motor de ventas al comprometer.
	txVenta := db.Begin()
	require.NoError(t, txVenta.Error)
	_, err := cajas.FindByIDForUpdateTx(txVenta, negocioID, cierre.ID)
	require.NoError(t, err)

	// El cierre pide el mismo lock y solo después lee los totales; debe
	// quedarse esperando mientras la venta siga abierta.
	type resultado struct {
		sums map[string]decimal.Decimal
		err  error
	}
	hecho := make(chan resultado, 1)
	go func() {
		txCierre := db.Begin()
		if txCierre.Error != nil {
			hecho <- resultado{err: txCierre.Error}
			return
		}
		defer txCierre.Commit()
		if _, err := cajas.FindByIDForUpdateTx(txCierre, negocioID, cierre.ID); err != nil {
			hecho <- resultado{err: err}
			return
		}
		sums, err := ventas.SumPorMetodoTx(txCierre, negocioID, cierre.ID)
		hecho <- resultado{sums: sums, err: err}
	}()

	select {
	case <-hecho:
		t.Fatal("el cierre no esperó a la venta en vuelo")
	case <-time.After(300 * time.Millisecond):
	}

	venta := &model.Venta{
		NegocioID: negocioID, CierreCajaID: cierre.ID, UsuarioID: u.ID,
		Subtotal: decimal.NewFromInt(350), Descuento: decimal.Zero,
		Impuesto: decimal.Zero, Propina: decimal.Zero, Total: decimal.NewFromInt(350),
		MetodoPago: model.MetodoEfectivo, Estado: model.VentaCompletada,
	}
	require.NoError(t, ventas.Create(ctx, txVenta, venta))
	require.NoError(t, txVenta.Commit().Error)

	res := <-hecho
	require.NoError(t, res.err)
	assert.True(t, res.sums[model.MetodoEfectivo].Equal(decimal.NewFromInt(350)),
		"los totales del cierre deben incluir la venta que comprometió antes del lock")
}

func TestIntegracion_ColaOfflineFIFO(t *testing.T) {
	if testing.Short() {
		t.Skip("integración: requiere docker")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(uri)
	require.NoError(t, err)

	cola := NewColaOfflineRepository(rdb)
	negocioID := uuid.New()
	const dispositivo = "terminal-int"

	venta := func(cierreID string) dto.RegistrarVentaRequest {
		return dto.RegistrarVentaRequest{
			CierreCajaID: cierreID,
			Items:        []dto.ItemVentaRequest{{ProductoID: uuid.NewString(), Cantidad: 1}},
			MetodoPago:   model.MetodoTarjeta,
		}
	}

	primera, err := cola.Encolar(ctx, negocioID, dispositivo, venta(uuid.NewString()))
	require.NoError(t, err)
	segunda, err := cola.Encolar(ctx, negocioID, dispositivo, venta(uuid.NewString()))
	require.NoError(t, err)
	assert.Less(t, primera.LocalID, segunda.LocalID)
	assert.NotEmpty(t, primera.OfflineID)

	entradas, err := cola.Listar(ctx, negocioID, dispositivo)
	require.NoError(t, err)
	require.Len(t, entradas, 2)
	assert.Equal(t, primera.LocalID, entradas[0].LocalID, "orden de captura preservado")

	require.NoError(t, cola.MarcarFallida(ctx, negocioID, dispositivo, segunda.LocalID, "stock insuficiente"))
	fallidas, err := cola.Fallidas(ctx, negocioID, dispositivo)
	require.NoError(t, err)
	assert.Equal(t, "stock insuficiente", fallidas[segunda.LocalID])

	require.NoError(t, cola.Eliminar(ctx, negocioID, dispositivo, entradas[0]))
	largo, err := cola.Largo(ctx, negocioID, dispositivo)
	require.NoError(t, err)
	assert.EqualValues(t, 1, largo)

	// Otro dispositivo tiene su propia cola.
	largo, err = cola.Largo(ctx, negocioID, "otro-terminal")
	require.NoError(t, err)
	assert.EqualValues(t, 0, largo)
}
