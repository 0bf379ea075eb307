package export

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"finzapp/internal/store"
)

// Mode selects the merge strategy for Import.
type Mode string

const (
	// ModeAppend adds the document's wallets and transactions alongside
	// the user's existing data.
	ModeAppend Mode = "append"
	// ModeReplace deletes all of the user's wallets and transactions
	// before importing.
	ModeReplace Mode = "replace"
)

// Result reports how much of a document was actually imported.
// Transactions whose source wallet was absent from the document are
// silently skipped and not counted; that is partial success, not failure.
type Result struct {
	Billeteras    int `json:"billeteras"`
	Transacciones int `json:"transacciones"`
}

// Import merges a document into the given user's dataset. Imported
// wallets start at saldo 0 with fresh generated ids; transactions are
// re-created through the store so every balance delta replays naturally.
func Import(ctx context.Context, s store.Store, userID uint, doc *Document, mode Mode) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", store.ErrInvalidDocument)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %q", store.ErrInvalidDocument, doc.Version)
	}
	if mode != ModeAppend && mode != ModeReplace {
		return nil, fmt.Errorf("%w: unknown import mode %q", store.ErrInvalidDocument, mode)
	}

	if mode == ModeReplace {
		if err := s.ResetUserData(ctx, userID); err != nil {
			return nil, err
		}
	}

	result := &Result{}
	// Old wallet id -> freshly generated id.
	idMap := make(map[uint]uint, len(doc.Billeteras))
	for _, w := range doc.Billeteras {
		created, err := s.CreateWallet(ctx, userID, w.Nombre, w.Color)
		if err != nil {
			return nil, err
		}
		idMap[w.ID] = created.ID
		result.Billeteras++
	}

	for _, t := range doc.Transacciones {
		newWalletID, ok := idMap[t.BilleteraID]
		if !ok {
			// Orphan: its wallet was not part of this document.
			continue
		}
		_, err := s.CreateTransaction(ctx, newWalletID, t.Tipo, t.Categoria, t.Monto, t.Descripcion, t.Fecha)
		if err != nil {
			return nil, err
		}
		result.Transacciones++
	}

	logrus.WithFields(logrus.Fields{
		"user_id":       userID,
		"mode":          mode,
		"billeteras":    result.Billeteras,
		"transacciones": result.Transacciones,
	}).Info("Import completed")
	return result, nil
}
