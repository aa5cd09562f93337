// Package allocation implements the table combination search.  Given a
// candidate pool of physical tables and a party size it finds the
// single table or joined combination that seats the party with the
// fewest tables and the least wasted seats.  The search is pure
// computation: conflict filtering and persistence belong to the
// caller.
package allocation

import (
    "errors"
    "math/bits"

    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ErrNoCombination is returned when no single table and no joined
// subset of the candidates can seat the party.  It is an expected
// business outcome, not an internal failure; callers surface it as a
// booking rejection.
var ErrNoCombination = errors.New("no table combination found")

// maxJoinable bounds the subset enumeration.  The search is O(2^n) in
// the number of joinable candidates, acceptable for a physical venue
// but not for a misconfigured registry with hundreds of joinable
// tables.  Pools beyond the bound resolve to ErrNoCombination unless a
// single table fits.
const maxJoinable = 20

// EffectiveSeats returns the combined seating capacity of a set of
// joined tables.  Every junction between two tables forfeits 2 seats,
// so k tables lose 2*(k-1) seats in total: two fours joined seat 6,
// three fours joined seat 8.
func EffectiveSeats(tables []model.Table) int {
    if len(tables) == 0 {
        return 0
    }
    sum := 0
    for _, t := range tables {
        sum += int(t.Seats)
    }
    return sum - 2*(len(tables)-1)
}

// CanHost reports whether the given tables, joined together, can seat
// the party.  A single table is judged on its raw seat count.
func CanHost(tables []model.Table, guests int) bool {
    if len(tables) == 0 || guests <= 0 {
        return false
    }
    if len(tables) == 1 {
        return tables[0].CanFitAlone(guests)
    }
    return EffectiveSeats(tables) >= guests
}

// FindBestCombination searches the candidate pool for the allocation
// that seats guests with the fewest tables, breaking ties by the
// smallest waste (effective seats minus guests).
//
// The single-table baseline is the smallest available table that fits
// the whole party.  Independently, every non-empty subset of the
// available joinable candidates is enumerated; a subset is feasible
// when its effective capacity reaches the party size.  Subsets already
// larger than the current best are skipped before the capacity check.
//
// A non-positive guest count or an empty pool resolves to
// ErrNoCombination.  The returned slice is ordered by the candidates'
// original order and is safe for the caller to retain.
func FindBestCombination(candidates []model.Table, guests int) ([]model.Table, error) {
    if len(candidates) == 0 || guests <= 0 {
        return nil, ErrNoCombination
    }

    var best []model.Table
    bestWaste := 0

    // Smallest fitting single table, joinable or not.
    for _, t := range candidates {
        if !t.Available || !t.CanFitAlone(guests) {
            continue
        }
        if best == nil || t.Seats < best[0].Seats {
            best = []model.Table{t}
        }
    }
    if best != nil {
        bestWaste = int(best[0].Seats) - guests
    }

    joinable := make([]model.Table, 0, len(candidates))
    for _, t := range candidates {
        if t.Available && t.Joinable {
            joinable = append(joinable, t)
        }
    }
    n := len(joinable)
    if n > maxJoinable {
        if best != nil {
            return best, nil
        }
        return nil, ErrNoCombination
    }

    for mask := 1; mask < 1<<n; mask++ {
        size := bits.OnesCount(uint(mask))
        if best != nil && size > len(best) {
            continue
        }

        combination := make([]model.Table, 0, size)
        for i := 0; i < n; i++ {
            if mask&(1<<i) != 0 {
                combination = append(combination, joinable[i])
            }
        }

        seats := EffectiveSeats(combination)
        if seats < guests {
            continue
        }
        waste := seats - guests

        switch {
        case best == nil:
            best, bestWaste = combination, waste
        case size < len(best):
            best, bestWaste = combination, waste
        case size == len(best) && waste < bestWaste:
            best, bestWaste = combination, waste
        }
    }

    if best == nil {
        return nil, ErrNoCombination
    }
    return best, nil
}
