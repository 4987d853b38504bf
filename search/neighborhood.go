package search

import (
	"context"

	"github.com/go-bisbm/dkbisbm/store"
)

// isLocalMinimum confirms that p is a local minimum of the (Ka, Kb)
// lattice by invoking the engine for every neighbor within k steps of p
// on each axis, excluding p itself and any neighbor with a non-positive
// block count.
//
// Every neighbor is evaluated via evaluatePoint — not merely checked
// against whatever the store already holds — so a confirmed local
// minimum always carries the invariant that the engine was called and
// recorded a description length no better than p's for each of its
// neighbors. The first neighbor whose committed description length
// is strictly better than p's disproves the local minimum immediately,
// without evaluating the rest.
func (d *Driver) isLocalMinimum(ctx context.Context, p store.Point, k int) (bool, error) {
	cp, ok := d.store.Fetch(p)
	if !ok {
		return false, nil
	}
	current := cp.DescLen

	for da := -k; da <= k; da++ {
		for db := -k; db <= k; db++ {
			if da == 0 && db == 0 {
				continue
			}
			n := store.Point{Ka: p.Ka + da, Kb: p.Kb + db}
			if n.Ka < 1 || n.Kb < 1 {
				continue
			}

			ncp, err := d.evaluatePoint(ctx, n.Ka, n.Kb)
			if err != nil {
				return false, err
			}
			if ncp.DescLen < current {
				return false, nil
			}
		}
	}
	return true, nil
}
