// Package orderid draws random order numbers and formats them for display.
package orderid

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
)

// Max is the largest order id; ids live in [1, Max].
const Max = 999999

// ErrExhausted is returned when every id in the space is taken.
var ErrExhausted = errors.New("orderid: no free id left")

// Store reports whether an order id is already used.
type Store interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// Generator picks a random starting id and probes linearly, wrapping from Max
// to 1, until it finds an unused one. Probing degrades as the id space fills
// up; it is only meant for volumes far below Max.
type Generator struct {
	Store Store
	// Draw returns the starting id in [1, Max]. Defaults to a uniform draw.
	Draw func() int
}

func New(store Store) *Generator {
	return &Generator{Store: store}
}

func (g *Generator) draw() int {
	if g.Draw != nil {
		return g.Draw()
	}
	return rand.IntN(Max) + 1
}

// Next returns a currently unused id and its display form. The id is not
// reserved: callers insert it under a uniqueness constraint and retry on conflict.
func (g *Generator) Next(ctx context.Context) (uint, string, error) {
	id := g.draw()
	if id < 1 || id > Max {
		return 0, "", fmt.Errorf("orderid: draw out of range: %d", id)
	}
	for range Max {
		taken, err := g.Store.Exists(ctx, uint(id))
		if err != nil {
			return 0, "", fmt.Errorf("orderid: check %d: %w", id, err)
		}
		if !taken {
			return uint(id), Format(uint(id)), nil
		}
		id++
		if id > Max {
			id = 1
		}
	}
	return 0, "", ErrExhausted
}

// Format renders id as six zero-padded digits split after the third: 42 -> "000-042".
func Format(id uint) string {
	s := fmt.Sprintf("%06d", id)
	return s[:3] + "-" + s[3:]
}
