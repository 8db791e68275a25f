package domain

import "fmt"

// Block es una racha contigua de filas con valor numérico en la columna de orden.
// Start y End son inclusivos.
type Block struct {
	Start int
	End   int
}

// Len devuelve el número de filas del bloque.
func (b Block) Len() int { return b.End - b.Start + 1 }

// Contains devuelve true si la fila pertenece al bloque.
func (b Block) Contains(row int) bool { return row >= b.Start && row <= b.End }

func (b Block) String() string { return fmt.Sprintf("%d–%d", b.Start, b.End) }
