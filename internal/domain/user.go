package domain

import "time"

// User Model (table usuarios)
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`                                       // Primary key
	Nombre        string    `gorm:"column:nombre;not null" json:"nombre"`                       // Given name
	Apellido      string    `gorm:"column:apellido;not null" json:"apellido"`                   // Family name
	Correo        string    `gorm:"column:correo;unique;not null" json:"correo"`                // Unique email, exact-match comparisons
	Contrasena    string    `gorm:"column:contraseña;not null" json:"-"`                        // Stored verbatim, never serialized
	FechaRegistro time.Time `gorm:"column:fecha_registro;autoCreateTime" json:"fecha_registro"` // Registration timestamp
}

// TableName keeps the original schema name
func (User) TableName() string { return "usuarios" }
