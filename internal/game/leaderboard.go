package game

import (
	"github.com/quizwhiz/backend/internal/models"
)

// AvgScore is the player's score divided by the number of resolved questions,
// truncating; 0 before any question is resolved. Ranking is based on this,
// not the raw score, so slow-and-accurate players compare fairly against
// fast-and-sloppy ones.
func AvgScore(p models.Player) int {
	n := p.AnsweredCount()
	if n == 0 {
		return 0
	}
	return p.Score / n
}

// LeaderboardSlot is one neighbor entry in a relative leaderboard.
type LeaderboardSlot struct {
	PlayerName   string  `json:"player_name"`
	AvgScore     int     `json:"avg_score"`
	GithubAvatar *string `json:"github_avatar"`
}

// RelativeLeaderboard is the per-player view emitted after each resolved
// question: the nearest player ahead, the nearest behind, and the absolute
// place.
type RelativeLeaderboard struct {
	Ahead    *LeaderboardSlot `json:"ahead"`
	Behind   *LeaderboardSlot `json:"behind"`
	Place    int              `json:"place"`
	Score    int              `json:"score"`
	AvgScore int              `json:"avg_score"`
}

// Relative computes the relative leaderboard for name over a players
// snapshot. Ahead is the minimal avg_score strictly above the player's,
// behind the maximal strictly below; ties are broken arbitrarily.
func Relative(players models.Players, name string) RelativeLeaderboard {
	self := players[name]
	selfAvg := AvgScore(self)

	lb := RelativeLeaderboard{
		Place:    1,
		Score:    self.Score,
		AvgScore: selfAvg,
	}

	for other, record := range players {
		if other == name {
			continue
		}
		avg := AvgScore(record)
		switch {
		case avg > selfAvg:
			lb.Place++
			if lb.Ahead == nil || avg < lb.Ahead.AvgScore {
				lb.Ahead = &LeaderboardSlot{PlayerName: other, AvgScore: avg, GithubAvatar: record.GithubAvatar}
			}
		case avg < selfAvg:
			if lb.Behind == nil || avg > lb.Behind.AvgScore {
				lb.Behind = &LeaderboardSlot{PlayerName: other, AvgScore: avg, GithubAvatar: record.GithubAvatar}
			}
		}
	}

	return lb
}

// PlayerMetrics is the per-player aggregate pushed to the host.
type PlayerMetrics struct {
	Score              int     `json:"score"`
	AvgScore           int     `json:"avg_score"`
	CorrectQuestions   int     `json:"correct_questions"`
	IncorrectQuestions int     `json:"incorrect_questions"`
	RemainingQuestions int     `json:"remaining_questions"`
	GithubAvatar       *string `json:"github_avatar"`
}

// Aggregate computes the host metrics view over a players snapshot.
func Aggregate(players models.Players) map[string]PlayerMetrics {
	out := make(map[string]PlayerMetrics, len(players))
	for name, p := range players {
		out[name] = PlayerMetrics{
			Score:              p.Score,
			AvgScore:           AvgScore(p),
			CorrectQuestions:   len(p.CorrectQuestions),
			IncorrectQuestions: len(p.IncorrectQuestions),
			RemainingQuestions: len(p.RemainingQuestions),
			GithubAvatar:       p.GithubAvatar,
		}
	}
	return out
}
