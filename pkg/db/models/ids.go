package models

import "github.com/google/uuid"

// assignID fills a zero primary key before insert. The migrations also carry
// gen_random_uuid() defaults, but generating client side keeps the id known
// to the caller and works on sqlite.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
