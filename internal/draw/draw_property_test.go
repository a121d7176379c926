package draw

import (
	"testing"

	"pgregory.net/rapid"

	"giveaway-bot/internal/model"
)

// TestSelectWinnerCountProperty checks that the draw always yields
// min(places, participants) winners.
func TestSelectWinnerCountProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 200).Draw(t, "participants")
		places := rapid.IntRange(model.MinWinnerPlaces, model.MaxWinnerPlaces).Draw(t, "places")

		winners := Select(makeParticipants(n), places)

		want := places
		if n < want {
			want = n
		}
		if len(winners) != want {
			t.Fatalf("expected %d winners for %d participants and %d places, got %d",
				want, n, places, len(winners))
		}
	})
}

// TestSelectUniquenessProperty checks that no participant wins twice and that
// every winner comes from the participant set.
func TestSelectUniquenessProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 200).Draw(t, "participants")
		places := rapid.IntRange(model.MinWinnerPlaces, model.MaxWinnerPlaces).Draw(t, "places")

		participants := makeParticipants(n)
		pool := make(map[int64]bool, n)
		for _, p := range participants {
			pool[p.UserID] = true
		}

		winners := Select(participants, places)

		seen := make(map[int64]bool, len(winners))
		for _, w := range winners {
			if !pool[w.UserID] {
				t.Fatalf("winner %d is not a participant", w.UserID)
			}
			if seen[w.UserID] {
				t.Fatalf("participant %d won more than once", w.UserID)
			}
			seen[w.UserID] = true
		}
	})
}

// TestSelectPlaceOrderProperty checks that places are assigned 1..k without
// gaps, in draw order.
func TestSelectPlaceOrderProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 50).Draw(t, "participants")
		places := rapid.IntRange(model.MinWinnerPlaces, model.MaxWinnerPlaces).Draw(t, "places")

		winners := Select(makeParticipants(n), places)

		for i, w := range winners {
			if w.Place != i+1 {
				t.Fatalf("winner at index %d has place %d", i, w.Place)
			}
		}
	})
}

// TestSelectInputUnchangedProperty checks that the participant slice is left
// intact by the draw.
func TestSelectInputUnchangedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 100).Draw(t, "participants")

		participants := makeParticipants(n)
		before := make([]int64, n)
		for i, p := range participants {
			before[i] = p.UserID
		}

		Select(participants, rapid.IntRange(1, 10).Draw(t, "places"))

		for i, p := range participants {
			if p.UserID != before[i] {
				t.Fatalf("participant slice reordered at index %d", i)
			}
		}
	})
}
