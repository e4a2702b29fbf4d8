// Package models contains domain entities for the gestiones queue
package models

import "strings"

// Column positions of a gestion row (sheet columns A..L)
const (
	ColID = iota
	ColNombres
	ColApellidos
	ColGenero
	ColFechaNacimiento
	ColNombrePadre
	ColNombreMadre
	ColLugarNacimiento
	ColComentarios
	ColEstado
	ColFechaRegistro
	ColFechaResuelto

	GestionColumnCount
)

// Column letters used when addressing single cells
const (
	IDColumnLetter            = "A"
	EstadoColumnLetter        = "J"
	FechaResueltoColumnLetter = "L"
	LastColumnLetter          = "L"
)

// GestionHeader is the header row expected in row 1 of the sheet
var GestionHeader = []string{
	"ID",
	"Nombres",
	"Apellidos",
	"Genero",
	"FechaNacimiento",
	"NombrePadre",
	"NombreMadre",
	"LugarNacimiento",
	"Comentarios",
	"Estado",
	"FechaRegistro",
	"FechaResuelto",
}

// Gestion is a single citizen service request as stored in one sheet row
type Gestion struct {
	ID              string `json:"ID"`
	Nombres         string `json:"Nombres"`
	Apellidos       string `json:"Apellidos"`
	Genero          string `json:"Genero"`
	FechaNacimiento string `json:"FechaNacimiento"`
	NombrePadre     string `json:"NombrePadre"`
	NombreMadre     string `json:"NombreMadre"`
	LugarNacimiento string `json:"LugarNacimiento"`
	Comentarios     string `json:"Comentarios"`
	Estado          string `json:"Estado"`
	FechaRegistro   string `json:"FechaRegistro"`
	FechaResuelto   string `json:"FechaResuelto"`
}

// ToRow renders the gestion in sheet column order
func (g Gestion) ToRow() []string {
	return []string{
		g.ID,
		g.Nombres,
		g.Apellidos,
		g.Genero,
		g.FechaNacimiento,
		g.NombrePadre,
		g.NombreMadre,
		g.LugarNacimiento,
		g.Comentarios,
		g.Estado,
		g.FechaRegistro,
		g.FechaResuelto,
	}
}

// GestionFromRow builds a gestion from a raw sheet row; short rows leave trailing fields empty
func GestionFromRow(row []string) Gestion {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Gestion{
		ID:              strings.TrimSpace(cell(ColID)),
		Nombres:         cell(ColNombres),
		Apellidos:       cell(ColApellidos),
		Genero:          cell(ColGenero),
		FechaNacimiento: cell(ColFechaNacimiento),
		NombrePadre:     cell(ColNombrePadre),
		NombreMadre:     cell(ColNombreMadre),
		LugarNacimiento: cell(ColLugarNacimiento),
		Comentarios:     cell(ColComentarios),
		Estado:          cell(ColEstado),
		FechaRegistro:   cell(ColFechaRegistro),
		FechaResuelto:   cell(ColFechaResuelto),
	}
}

// HasEstado compares states case-insensitively, ignoring surrounding blanks
func (g Gestion) HasEstado(estado string) bool {
	return strings.EqualFold(strings.TrimSpace(g.Estado), strings.TrimSpace(estado))
}

// IsBlankRow reports whether every cell of a raw row is empty
func IsBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
