package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// WriteCSV flattens a document into three CSV sections (user, wallets,
// transactions). This is a presentation-only transform of the document;
// it carries no protocol semantics and is never read back.
func WriteCSV(doc *Document, w io.Writer) error {
	cw := csv.NewWriter(w)

	records := [][]string{
		{"usuario"},
		{"id", "nombre", "apellido", "correo", "fecha_registro"},
		{
			formatID(doc.Usuario.ID),
			doc.Usuario.Nombre,
			doc.Usuario.Apellido,
			doc.Usuario.Correo,
			doc.Usuario.FechaRegistro.Format(time.RFC3339),
		},
		{},
		{"billeteras"},
		{"id", "nombre", "saldo", "color", "fecha_creacion"},
	}
	for _, b := range doc.Billeteras {
		records = append(records, []string{
			formatID(b.ID),
			b.Nombre,
			b.Saldo.String(),
			b.Color,
			b.FechaCreacion.Format(time.RFC3339),
		})
	}
	records = append(records,
		[]string{},
		[]string{"transacciones"},
		[]string{"id", "billetera_id", "tipo", "categoria", "monto", "descripcion", "fecha", "billetera_nombre"},
	)
	for _, t := range doc.Transacciones {
		records = append(records, []string{
			formatID(t.ID),
			formatID(t.BilleteraID),
			string(t.Tipo),
			t.Categoria,
			t.Monto.String(),
			t.Descripcion,
			t.Fecha.Format(time.RFC3339),
			t.BilleteraNombre,
		})
	}

	if err := cw.WriteAll(records); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
