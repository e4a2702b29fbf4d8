package dto

import "github.com/turnixpro/turnix/models"

// CreateGestionRequest carries the citizen data for a new queue entry.
// ID, Estado and the timestamps are assigned by the server.
type CreateGestionRequest struct {
	Nombres         string `json:"Nombres" validate:"required,max=200"`
	Apellidos       string `json:"Apellidos" validate:"omitempty,max=200"`
	Genero          string `json:"Genero" validate:"omitempty,max=50"`
	FechaNacimiento string `json:"FechaNacimiento" validate:"omitempty,max=50"`
	NombrePadre     string `json:"NombrePadre" validate:"omitempty,max=200"`
	NombreMadre     string `json:"NombreMadre" validate:"omitempty,max=200"`
	LugarNacimiento string `json:"LugarNacimiento" validate:"omitempty,max=200"`
	Comentarios     string `json:"Comentarios" validate:"omitempty,max=2000"`
}

// CreateGestionResponse returns the assigned queue id
type CreateGestionResponse struct {
	Message       string `json:"message"`
	ID            string `json:"id"`
	FechaRegistro string `json:"fecha_registro"`
}

// ListGestionesRequest filters listings; Estado is compared case-insensitively
type ListGestionesRequest struct {
	Estado *string `json:"estado,omitempty" validate:"omitempty,max=50"`
}

// ListGestionesResponse wraps the rows of a listing
type ListGestionesResponse struct {
	Items []models.Gestion `json:"items"`
	Total int              `json:"total"`
}

// UpdateEstadoRequest changes the Estado of one gestion. ID comes from the path.
type UpdateEstadoRequest struct {
	ID          string `json:"-"`
	NuevoEstado string `json:"nuevoEstado" validate:"required,max=50"`
}

// UpdateEstadoResponse echoes the applied change
type UpdateEstadoResponse struct {
	Message       string  `json:"message"`
	ID            string  `json:"id"`
	Estado        string  `json:"estado"`
	FechaResuelto *string `json:"fecha_resuelto,omitempty"`
}
