package domain

import "time"

// Timestamps holds server-assigned times / Horodatages assignés par le serveur
type Timestamps struct {
	CreatedAt time.Time // Record creation time / Heure de création de l'enregistrement
	UpdatedAt time.Time // Record last update time / Heure de dernière mise à jour
}
