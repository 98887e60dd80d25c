package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles. Anular ventas requires supervisor or administrador.
const (
	RolCajero        = "cajero"
	RolSupervisor    = "supervisor"
	RolAdministrador = "administrador"
)

// Usuario is an operator account scoped to one negocio.
type Usuario struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NegocioID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uni_usuarios_negocio_username,priority:1"`

	Username     string `gorm:"not null;uniqueIndex:uni_usuarios_negocio_username,priority:2"`
	Nombre       string `gorm:"not null"`
	PasswordHash string `gorm:"not null"`
	Rol          string `gorm:"type:varchar(20);not null;default:'cajero'"`
	Activo       bool   `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
