// Package repository holds the contracts shared by the document store
// implementations.
package repository

import (
	"errors"

	"github.com/mamadbah2/footprint/internal/domain/models"
)

// CommunityDocumentID identifies the single community totals document.
const CommunityDocumentID = "emissions_stats"

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("repository: document not found")

// CommunityUpdateFunc computes the next community totals from the current
// ones. exists is false when the document has never been written, in which
// case current is the zero value with LastUpdated set to now. The function
// may be invoked more than once when the store retries a conflicting write,
// so it must not have side effects.
type CommunityUpdateFunc func(current models.CommunityEmissionsData, exists bool) (models.CommunityEmissionsData, error)
