package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/apierror"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// min/max sobre decimal.Decimal: el validador solo entiende numéricos, así
	// que los montos se exponen como float64 solo para validar rangos.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds the JSON body and runs struct validation, writing the
// 400 response itself. Returns false when the request was rejected.
func bindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("cuerpo de la solicitud inválido"))
		return false
	}
	if err := validate.Struct(obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[strings.ToLower(fe.Field())] = fe.Tag()
			}
			c.JSON(http.StatusBadRequest, apierror.NewValidation(fields))
			return false
		}
		c.JSON(http.StatusBadRequest, apierror.New("solicitud inválida"))
		return false
	}
	return true
}

// respondError maps service errors to HTTP. Anything unrecognized is logged
// and collapsed into an opaque 500.
func respondError(c *gin.Context, err error) {
	var stock *service.ErrStockInsuficiente
	var stale *service.ErrProductoInexistente

	switch {
	case errors.Is(err, service.ErrCredencialesInvalidas):
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
	case errors.Is(err, service.ErrNoAutorizado):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, service.ErrVentaNoEncontrada):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrCajaCerrada),
		errors.Is(err, service.ErrCajaYaAbierta),
		errors.Is(err, service.ErrSinCajaAbierta),
		errors.Is(err, service.ErrVentaYaAnulada),
		errors.Is(err, service.ErrConflictoTransaccion):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &stock), errors.As(err, &stale):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case errors.Is(err, service.ErrConexion):
		c.JSON(http.StatusServiceUnavailable, apierror.New(err.Error()))
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("error interno")
		c.JSON(http.StatusInternalServerError, apierror.New("error interno del servidor"))
	}
}
