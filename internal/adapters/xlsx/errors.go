package xlsx

import "errors"

// ErrNotFound indica que el fichero de entrada no existe.
var ErrNotFound = errors.New("workbook not found")

// ErrParse indica que el fichero no es un xlsx válido.
var ErrParse = errors.New("invalid xlsx workbook")

// ErrSheetMissing indica que la hoja pedida no existe en el workbook.
var ErrSheetMissing = errors.New("sheet not found")
