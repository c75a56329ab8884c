// Package ranking builds tie-aware leaderboards and the reverse-chronological feed.
package ranking

import (
	"sort"

	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/scoring"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DenseRanks assigns competition ranks to values already sorted descending:
// equal values share a rank and the next distinct value takes its 1-based position.
// [10, 10, 8, 5] ranks as [1, 1, 3, 4].
func DenseRanks(sorted []float64) []int {
	ranks := make([]int, len(sorted))
	for i, v := range sorted {
		if i > 0 && v == sorted[i-1] {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

// Entry is one row of a leaderboard.
type Entry struct {
	Rank     int                `json:"rank"`
	UserID   primitive.ObjectID `json:"userId"`
	UserName string             `json:"userName"`
	Email    string             `json:"email"`
	Value    float64            `json:"value"`
}

// Leaderboard is an ordered list of entries for one exercise or metric.
type Leaderboard struct {
	ExerciseType domain.ExerciseType `json:"exerciseType,omitempty"`
	Metric       scoring.Metric      `json:"metric,omitempty"`
	Unit         string              `json:"unit,omitempty"`
	Entries      []Entry             `json:"entries"`
}

// rank sorts entries by value descending, then display name, then id, and fills in ranks.
func rank(entries []Entry) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		if a.UserName != b.UserName {
			return a.UserName < b.UserName
		}
		return a.UserID.Hex() < b.UserID.Hex()
	})

	values := make([]float64, len(entries))
	for i, e := range entries {
		values[i] = e.Value
	}
	for i, r := range DenseRanks(values) {
		entries[i].Rank = r
	}
	return entries
}

// ExerciseLeaderboards ranks raw best values per exercise, ignoring multipliers.
// Only users with a record for the exercise appear on its board.
func ExerciseLeaderboards(records []*domain.ExerciseRecord, profiles []*domain.UserProfile) []Leaderboard {
	best := scoring.BestPerExercise(records)
	names := displayNames(records, profiles)

	boards := make([]Leaderboard, 0, len(domain.ExerciseTypes))
	for _, e := range domain.ExerciseTypes {
		entries := []Entry{}
		for uid, perUser := range best {
			v, ok := perUser[e]
			if !ok {
				continue
			}
			n := names[uid]
			entries = append(entries, Entry{
				UserID:   uid,
				UserName: n.name,
				Email:    n.email,
				Value:    float64(v),
			})
		}
		boards = append(boards, Leaderboard{
			ExerciseType: e,
			Unit:         e.Unit(),
			Entries:      rank(entries),
		})
	}
	return boards
}

// TotalLeaderboard ranks every aggregated user by their total in metric m.
func TotalLeaderboard(res *scoring.Result, m scoring.Metric) Leaderboard {
	board := Leaderboard{Metric: m, Entries: []Entry{}}
	if res == nil {
		return board
	}
	for _, u := range res.Users {
		board.Entries = append(board.Entries, Entry{
			UserID:   u.UserID,
			UserName: u.UserName,
			Email:    u.Email,
			Value:    u.Score(m).Total,
		})
	}
	board.Entries = rank(board.Entries)
	return board
}

type nameInfo struct{ name, email string }

func displayNames(records []*domain.ExerciseRecord, profiles []*domain.UserProfile) map[primitive.ObjectID]nameInfo {
	out := make(map[primitive.ObjectID]nameInfo, len(profiles))
	for _, p := range profiles {
		if p != nil {
			out[p.ID] = nameInfo{name: p.DisplayName(), email: p.Email}
		}
	}
	for _, r := range records {
		if r == nil {
			continue
		}
		if _, ok := out[r.UserID]; !ok {
			out[r.UserID] = nameInfo{name: r.UserEmail, email: r.UserEmail}
		}
	}
	return out
}
